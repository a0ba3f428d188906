package models

import (
	"context"
	"fmt"
	"organizer/config"
	"organizer/db"
	"organizer/ingest"
	"strings"
	"time"

	"gorm.io/gorm"
	"k8s.io/klog/v2"
)

type Photo struct {
	ID           uint64  `gorm:"primaryKey" json:"id"`
	Data         []byte  `json:"-"`
	Preview      []byte  `json:"-"`
	DisplayName  string  `gorm:"type:varchar(300);index" json:"display_name"`
	CustomName   *string `gorm:"type:varchar(300)" json:"custom_name"`
	MimeType     string  `gorm:"type:varchar(50)" json:"mime_type"`
	Size         int64   `gorm:"index" json:"size"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	DateAdded    int64   `gorm:"index" json:"date_added"`
	DateModified int64   `json:"date_modified"`
	DateTaken    *int64  `json:"date_taken"`
	FolderID     *uint64 `gorm:"index" json:"folder_id"` // nil means uncategorized
	Favorite     bool    `gorm:"index;not null;default:false" json:"favorite"`
}

// Name returns the user's custom name if set, the original file name otherwise
func (p *Photo) Name() string {
	if p.CustomName != nil && *p.CustomName != "" {
		return *p.CustomName
	}
	return p.DisplayName
}

// HasPreview is false when the preview could not be derived at import time
func (p *Photo) HasPreview() bool {
	return len(p.Preview) > 0
}

// ImportFile is the shape handed over by the file picker, the inbox or any
// other import source.
type ImportFile struct {
	Data         []byte
	Name         string
	MimeType     string
	Size         int64
	LastModified int64 // milliseconds, 0 if unknown
}

// importBatchSize keeps multi-row inserts under the driver's bound variable limit
const importBatchSize = 50

// listColumns is everything but the original bytes, which only GetByID loads
var listColumns = []string{"id", "preview", "display_name", "custom_name", "mime_type", "size", "width", "height",
	"date_added", "date_modified", "date_taken", "folder_id", "favorite"}

// updatableColumns are the fields Update replaces. The file name, import
// date and payloads are fixed at import time.
var updatableColumns = []string{"custom_name", "mime_type", "width", "height", "date_modified", "date_taken",
	"folder_id", "favorite"}

type PhotoRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func (r *PhotoRepository) nowMilli() int64 {
	return r.now().UnixMilli()
}

// Import stores one photo per file and returns the new ids in the same order.
// Preview and dimensions are derived per file; a file that cannot be decoded
// is still imported, without a preview and with zero dimensions.
func (r *PhotoRepository) Import(ctx context.Context, files []ImportFile, folderID *uint64) ([]uint64, error) {
	now := r.nowMilli()
	photos := make([]Photo, 0, len(files))
	for _, file := range files {
		dims := ingest.ProbeDimensions(file.Data)
		photo := Photo{
			Data:         file.Data,
			Preview:      ingest.DeriveThumbnail(file.Data, uint(config.THUMB_MAX_SIZE)),
			DisplayName:  file.Name,
			MimeType:     ingest.DetectMimeType(file.Data, file.MimeType),
			Size:         file.Size,
			Width:        dims.Width,
			Height:       dims.Height,
			DateAdded:    now,
			DateModified: now,
			FolderID:     folderID,
		}
		if photo.Size <= 0 {
			photo.Size = int64(len(file.Data))
		}
		if file.LastModified > 0 {
			photo.DateModified = file.LastModified
			lastModified := file.LastModified
			photo.DateTaken = &lastModified
		}
		if !photo.HasPreview() {
			klog.V(1).Infof("No preview for %q (%s)", file.Name, photo.MimeType)
		}
		photos = append(photos, photo)
	}
	if len(photos) == 0 {
		return []uint64{}, nil
	}
	err := db.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := checkFolderExists(tx, folderID); err != nil {
			return err
		}
		return tx.CreateInBatches(&photos, importBatchSize).Error
	})
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	ids := make([]uint64, len(photos))
	for i := range photos {
		ids[i] = photos[i].ID
	}
	klog.Infof("Imported %d photo(s) into folder %s", len(ids), folderLabel(folderID))
	return ids, nil
}

func (r *PhotoRepository) GetAll(ctx context.Context, key SortKey, dir SortDir) ([]Photo, error) {
	photos := []Photo{}
	if err := r.db.WithContext(ctx).Select(listColumns).Find(&photos).Error; err != nil {
		return nil, err
	}
	sortPhotos(photos, key, dir)
	return photos, nil
}

// GetByFolder lists the photos of a folder, or the uncategorized ones when
// folderID is nil.
func (r *PhotoRepository) GetByFolder(ctx context.Context, folderID *uint64, key SortKey, dir SortDir) ([]Photo, error) {
	photos := []Photo{}
	if err := whereFolder(r.db.WithContext(ctx), folderID).Select(listColumns).Find(&photos).Error; err != nil {
		return nil, err
	}
	sortPhotos(photos, key, dir)
	return photos, nil
}

// GetByID returns the full record, including the original bytes, or nil if
// there is no such photo.
func (r *PhotoRepository) GetByID(ctx context.Context, id uint64) (*Photo, error) {
	photos := []Photo{}
	if err := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&photos).Error; err != nil {
		return nil, err
	}
	if len(photos) == 0 {
		return nil, nil
	}
	return &photos[0], nil
}

func (r *PhotoRepository) SetFavorite(ctx context.Context, id uint64, value bool) error {
	return r.db.WithContext(ctx).Model(&Photo{}).Where("id = ?", id).Update("favorite", value).Error
}

// Update replaces the mutable fields of photo. Nothing happens if the photo
// no longer exists.
func (r *PhotoRepository) Update(ctx context.Context, photo *Photo) error {
	return db.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		var current Photo
		result := tx.Select("id", "folder_id").Where("id = ?", photo.ID).Limit(1).Find(&current)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		if !sameFolder(current.FolderID, photo.FolderID) {
			if err := checkFolderExists(tx, photo.FolderID); err != nil {
				return err
			}
		}
		return tx.Model(&Photo{ID: photo.ID}).Select(updatableColumns).Updates(photo).Error
	})
}

// Rename sets the custom name; an empty name brings back the original file name
func (r *PhotoRepository) Rename(ctx context.Context, id uint64, customName string) error {
	photo, err := r.GetByID(ctx, id)
	if err != nil || photo == nil {
		return err
	}
	customName = strings.TrimSpace(customName)
	if customName == "" || customName == photo.DisplayName {
		photo.CustomName = nil
	} else {
		photo.CustomName = &customName
	}
	photo.DateModified = r.nowMilli()
	return r.Update(ctx, photo)
}

// MoveToFolder retargets all the given photos in one transaction. Ids that no
// longer exist are skipped.
func (r *PhotoRepository) MoveToFolder(ctx context.Context, ids []uint64, folderID *uint64) error {
	if len(ids) == 0 {
		return nil
	}
	return db.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := checkFolderExists(tx, folderID); err != nil {
			return err
		}
		return tx.Model(&Photo{}).Where("id IN ?", ids).Update("folder_id", folderID).Error
	})
}

// DeletePhotos removes the photos' tag links, then the photos themselves and
// finally any folder cover pointing at them, all in one transaction.
func (r *PhotoRepository) DeletePhotos(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	err := db.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("photo_id IN ?", ids).Delete(&PhotoTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", ids).Delete(&Photo{}).Error; err != nil {
			return err
		}
		return tx.Model(&Folder{}).Where("cover_photo_id IN ?", ids).UpdateColumn("cover_photo_id", nil).Error
	})
	if err != nil {
		return fmt.Errorf("delete photos: %w", err)
	}
	return nil
}

// CountByFolder counts the photos in a folder, or the uncategorized ones when
// folderID is nil.
func (r *PhotoRepository) CountByFolder(ctx context.Context, folderID *uint64) (count int64, err error) {
	err = whereFolder(r.db.WithContext(ctx).Model(&Photo{}), folderID).Count(&count).Error
	return
}

// countsByFolder returns the number of photos per folder id, uncategorized
// photos are not included.
func countsByFolder(tx *gorm.DB) (map[uint64]int64, error) {
	rows, err := tx.Model(&Photo{}).
		Select("folder_id, count(*)").
		Where("folder_id IS NOT NULL").
		Group("folder_id").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := map[uint64]int64{}
	var folderID uint64
	var count int64
	for rows.Next() {
		if err = rows.Scan(&folderID, &count); err != nil {
			return nil, err
		}
		result[folderID] = count
	}
	return result, rows.Err()
}

func whereFolder(tx *gorm.DB, folderID *uint64) *gorm.DB {
	if folderID == nil {
		return tx.Where("folder_id IS NULL")
	}
	return tx.Where("folder_id = ?", *folderID)
}

func checkFolderExists(tx *gorm.DB, folderID *uint64) error {
	if folderID == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&Folder{}).Where("id = ?", *folderID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return &ValidationError{Field: "folder_id", Message: fmt.Sprintf("folder %d does not exist", *folderID)}
	}
	return nil
}

func sameFolder(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func folderLabel(folderID *uint64) string {
	if folderID == nil {
		return "uncategorized"
	}
	return fmt.Sprintf("%d", *folderID)
}
