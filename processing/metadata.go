package processing

import (
	"context"
	"organizer/config"
	"organizer/models"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/barasher/go-exiftool"
	"gorm.io/gorm"
	"k8s.io/klog/v2"
)

const exifDate = "2006:01:02 15:04:05"

// metadata fills in the date taken and missing dimensions from EXIF
type metadata struct {
	et *exiftool.Exiftool
}

// newMetadata returns nil when exiftool is not installed
func newMetadata() *metadata {
	et, err := exiftool.NewExiftool()
	if err != nil {
		klog.Warningf("exiftool not available, metadata task disabled: %v", err)
		return nil
	}
	return &metadata{et: et}
}

func (md *metadata) getName() string {
	return "metadata"
}

func (md *metadata) shouldHandle(photo *models.Photo) bool {
	return strings.HasPrefix(photo.MimeType, "image/") && len(photo.Data) > 0 &&
		(takenUnknown(photo) || photo.Width == 0 || photo.Height == 0)
}

// takenUnknown is true when the date taken is missing or only copied from
// the file's modification time at import
func takenUnknown(photo *models.Photo) bool {
	return photo.DateTaken == nil || *photo.DateTaken == photo.DateModified
}

func (md *metadata) process(ctx context.Context, tx *gorm.DB, photo *models.Photo) int {
	tmp, err := os.CreateTemp(config.TMP_DIR, "metadata-*")
	if err != nil {
		klog.Errorf("Metadata temp file error: %v", err)
		return Failed
	}
	defer os.Remove(tmp.Name())
	_, err = tmp.Write(photo.Data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		klog.Errorf("Metadata temp file error: %v", err)
		return Failed
	}

	fi := md.et.ExtractMetadata(tmp.Name())[0]
	if fi.Err != nil {
		klog.V(1).Infof("Metadata extraction failed for photo %d: %v", photo.ID, fi.Err)
		return Failed
	}
	columns := map[string]any{}
	if photo.Width == 0 || photo.Height == 0 {
		w, werr := fi.GetInt("ImageWidth")
		h, herr := fi.GetInt("ImageHeight")
		if werr == nil && herr == nil && w > 0 && h > 0 {
			columns["width"] = int(w)
			columns["height"] = int(h)
		}
	}
	if takenUnknown(photo) {
		ds, err := fi.GetString("DateTimeOriginal")
		if err != nil {
			ds, err = fi.GetString("CreateDate")
		}
		if err == nil {
			offset, _ := fi.GetString("OffsetTimeOriginal")
			if offset == "" {
				offset, _ = fi.GetString("OffsetTime")
			}
			if taken, ok := parseTaken(ds, offset); ok {
				columns["date_taken"] = taken
			}
		}
	}
	if len(columns) == 0 {
		return Done
	}
	if err = tx.WithContext(ctx).Model(&models.Photo{}).Where("id = ?", photo.ID).UpdateColumns(columns).Error; err != nil {
		klog.Errorf("Error updating DB for photo %d: %v", photo.ID, err)
		return FailedDB
	}
	return Done
}

// parseTaken converts an EXIF date to Unix milliseconds. Without an offset
// the date is taken as local time.
func parseTaken(date, offset string) (int64, bool) {
	location := time.Local
	if o := getTimeOffsetFrom(offset); o != nil {
		location = time.FixedZone(offset, *o)
	}
	t, err := time.ParseInLocation(exifDate, strings.TrimSpace(date), location)
	if err != nil || t.Year() < 1800 {
		return 0, false
	}
	return t.UnixMilli(), true
}

// getTimeOffsetFrom return offset in seconds (or nil on error), input format is "+09:00"
func getTimeOffsetFrom(s string) *int {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return nil
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil
	}
	mins, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil
	}
	result := hours * 3600
	if strings.HasPrefix(parts[0], "-") {
		result -= mins * 60
	} else {
		result += mins * 60
	}
	return &result
}
