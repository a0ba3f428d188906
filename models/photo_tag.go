package models

import (
	"context"
	"organizer/db"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"k8s.io/klog/v2"
)

// PhotoTag links one photo to one tag. The pair is unique.
type PhotoTag struct {
	ID       string `gorm:"type:varchar(36);primaryKey"`
	PhotoID  uint64 `gorm:"not null;index;uniqueIndex:photo_tag_pair,priority:1"`
	TagID    uint64 `gorm:"not null;index;uniqueIndex:photo_tag_pair,priority:2"`
	TaggedAt int64
}

func (pt *PhotoTag) BeforeCreate(tx *gorm.DB) (err error) {
	if pt.ID == "" {
		pt.ID = uuid.NewString()
	}
	return
}

type PhotoTagRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// Add links the photo to the tag. Adding a pair that is already linked does
// nothing, and so does linking a photo or tag that no longer exists.
func (r *PhotoTagRepository) Add(ctx context.Context, photoID, tagID uint64) error {
	return db.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		var photos, tags int64
		if err := tx.Model(&Photo{}).Where("id = ?", photoID).Count(&photos).Error; err != nil {
			return err
		}
		if err := tx.Model(&Tag{}).Where("id = ?", tagID).Count(&tags).Error; err != nil {
			return err
		}
		if photos == 0 || tags == 0 {
			klog.V(1).Infof("Skipping link of photo %d to tag %d: not found", photoID, tagID)
			return nil
		}
		link := PhotoTag{
			PhotoID:  photoID,
			TagID:    tagID,
			TaggedAt: r.now().UnixMilli(),
		}
		return tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "photo_id"}, {Name: "tag_id"}}, DoNothing: true}).
			Create(&link).Error
	})
}

// AddToMultiple adds the tag to each photo in turn. A failing pair doesn't
// stop the rest; the photo ids that failed are returned.
func (r *PhotoTagRepository) AddToMultiple(ctx context.Context, photoIDs []uint64, tagID uint64) (failed []uint64) {
	failed = []uint64{}
	for _, photoID := range photoIDs {
		if err := r.Add(ctx, photoID, tagID); err != nil {
			klog.Errorf("Cannot tag photo %d with tag %d: %v", photoID, tagID, err)
			failed = append(failed, photoID)
		}
	}
	return
}

func (r *PhotoTagRepository) Remove(ctx context.Context, photoID, tagID uint64) error {
	return r.db.WithContext(ctx).Where("photo_id = ? AND tag_id = ?", photoID, tagID).Delete(&PhotoTag{}).Error
}

// GetTagsForPhoto returns the tags of a photo, in the order they were added
func (r *PhotoTagRepository) GetTagsForPhoto(ctx context.Context, photoID uint64) ([]Tag, error) {
	tags := []Tag{}
	err := r.db.WithContext(ctx).
		Table("photo_tags").
		Select("tags.*").
		Joins("join tags on tags.id = photo_tags.tag_id").
		Where("photo_tags.photo_id = ?", photoID).
		Order("photo_tags.tagged_at ASC, tags.id ASC").
		Scan(&tags).Error
	return tags, err
}

func (r *PhotoTagRepository) GetPhotosForTag(ctx context.Context, tagID uint64) ([]uint64, error) {
	ids := []uint64{}
	err := r.db.WithContext(ctx).Model(&PhotoTag{}).
		Where("tag_id = ?", tagID).
		Order("tagged_at ASC").
		Pluck("photo_id", &ids).Error
	return ids, err
}
