package processing

import (
	"context"
	"organizer/config"
	"organizer/ingest"
	"organizer/models"
	"strings"

	"gorm.io/gorm"
	"k8s.io/klog/v2"
)

// thumb derives a preview for image photos imported without one
type thumb struct{}

func (t *thumb) getName() string {
	return "thumb"
}

func (t *thumb) shouldHandle(photo *models.Photo) bool {
	return !photo.HasPreview() && strings.HasPrefix(photo.MimeType, "image/") && len(photo.Data) > 0
}

func (t *thumb) process(ctx context.Context, tx *gorm.DB, photo *models.Photo) int {
	preview := ingest.DeriveThumbnail(photo.Data, uint(config.THUMB_MAX_SIZE))
	if preview == nil {
		klog.V(1).Infof("Cannot create preview for photo %d (%s)", photo.ID, photo.DisplayName)
		return Failed
	}
	columns := map[string]any{"preview": preview}
	if photo.Width == 0 || photo.Height == 0 {
		dims := ingest.ProbeDimensions(photo.Data)
		columns["width"] = dims.Width
		columns["height"] = dims.Height
	}
	err := tx.WithContext(ctx).Model(&models.Photo{}).Where("id = ?", photo.ID).UpdateColumns(columns).Error
	if err != nil {
		klog.Errorf("Error saving preview for photo %d: %v", photo.ID, err)
		return FailedDB
	}
	photo.Preview = preview
	return Done
}
