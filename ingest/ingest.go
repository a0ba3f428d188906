// Package ingest derives previews and dimensions from raw image bytes. Every
// function here is a pure transformation; decode failures never propagate as
// errors from DeriveThumbnail or ProbeDimensions.
package ingest

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"

	"organizer/config"

	"github.com/gabriel-vasile/mimetype"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"k8s.io/klog/v2"
)

type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DeriveThumbnail scales the image so its longer edge is maxDimension,
// keeping the aspect ratio, and encodes it as JPEG. It returns nil if the
// image cannot be decoded or encoded.
func DeriveThumbnail(data []byte, maxDimension uint) []byte {
	if len(data) == 0 || maxDimension == 0 {
		return nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		klog.V(1).Infof("Cannot decode image for preview: %v", err)
		return nil
	}
	var buf bytes.Buffer
	if err = encode(&buf, scale(img, maxDimension)); err != nil {
		klog.V(1).Infof("Cannot encode preview: %v", err)
		return nil
	}
	return buf.Bytes()
}

// Resize is DeriveThumbnail for callers that asked for a specific size and
// want to know why it failed.
func Resize(data []byte, size uint) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err = encode(&buf, scale(img, size)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ProbeDimensions reads the pixel size from the image header, {0,0} if the
// format is unknown or the data is broken.
func ProbeDimensions(data []byte) Dimensions {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Dimensions{}
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}
}

// DetectMimeType keeps a declared type and sniffs the content otherwise
func DetectMimeType(data []byte, declared string) string {
	if declared != "" {
		return declared
	}
	return mimetype.Detect(data).String()
}

// ScaledSize returns the size of a w x h image whose longer edge becomes
// maxDimension; the shorter edge is rounded.
func ScaledSize(w, h int, maxDimension uint) (uint, uint) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	longer := float64(maxDimension)
	if w > h {
		return maxDimension, uint(math.Max(1, math.Round(float64(h)*longer/float64(w))))
	}
	return uint(math.Max(1, math.Round(float64(w)*longer/float64(h)))), maxDimension
}

func scale(img image.Image, maxDimension uint) image.Image {
	size := img.Bounds().Size()
	w, h := ScaledSize(size.X, size.Y, maxDimension)
	return resize.Resize(w, h, img, resize.Lanczos3)
}

func encode(buf *bytes.Buffer, img image.Image) error {
	return jpeg.Encode(buf, img, &jpeg.Options{Quality: config.THUMB_QUALITY})
}
