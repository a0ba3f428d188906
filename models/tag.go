package models

import (
	"context"
	"fmt"
	"organizer/config"
	"organizer/db"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
	"k8s.io/klog/v2"
)

type Tag struct {
	ID         uint64 `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"type:varchar(250);not null" json:"name"`
	NameKey    string `gorm:"type:varchar(250);not null;uniqueIndex" json:"-"`
	Color      string `gorm:"type:varchar(20)" json:"color"`
	CreatedAt  int64  `gorm:"autoCreateTime:false" json:"created_at"`
	UsageCount int64  `gorm:"-" json:"usage_count"`
}

func (t *Tag) BeforeSave(tx *gorm.DB) (err error) {
	t.Name = strings.TrimSpace(t.Name)
	t.NameKey = foldName(t.Name)
	return
}

type TagRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// Create adds a tag, with the default color if color is empty. Duplicate
// names (case-insensitive) are rejected with a ValidationError.
func (r *TagRepository) Create(ctx context.Context, name, color string) (uint64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, &ValidationError{Field: "name", Message: "cannot be empty"}
	}
	if color == "" {
		color = config.DEFAULT_TAG_COLOR
	}
	release, ok := reserveName("tag", name)
	if !ok {
		return 0, duplicateName(name)
	}
	defer release()

	exists, err := r.NameExists(ctx, name)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, duplicateName(name)
	}
	tag := Tag{
		Name:      name,
		Color:     color,
		CreatedAt: r.now().UnixMilli(),
	}
	if err = r.db.WithContext(ctx).Create(&tag).Error; err != nil {
		if isUniqueViolation(err) {
			return 0, duplicateName(name)
		}
		return 0, fmt.Errorf("create tag: %w", err)
	}
	klog.Infof("Tag %d created: %q", tag.ID, tag.Name)
	return tag.ID, nil
}

// GetAll returns every tag with its usage count, most used first
func (r *TagRepository) GetAll(ctx context.Context) ([]Tag, error) {
	tags := []Tag{}
	tx := r.db.WithContext(ctx)
	if err := tx.Order("id").Find(&tags).Error; err != nil {
		return nil, err
	}
	rows, err := tx.Model(&PhotoTag{}).Select("tag_id, count(*)").Group("tag_id").Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[uint64]int64{}
	var tagID uint64
	var count int64
	for rows.Next() {
		if err = rows.Scan(&tagID, &count); err != nil {
			return nil, err
		}
		counts[tagID] = count
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	for i := range tags {
		tags[i].UsageCount = counts[tags[i].ID]
	}
	// Sort tags by popularity (num photos)
	sort.SliceStable(tags, func(i, j int) bool {
		return tags[i].UsageCount > tags[j].UsageCount
	})
	return tags, nil
}

func (r *TagRepository) GetByID(ctx context.Context, id uint64) (*Tag, error) {
	tags := []Tag{}
	if err := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, nil
	}
	tag := &tags[0]
	var err error
	tag.UsageCount, err = r.UsageCount(ctx, id)
	return tag, err
}

func (r *TagRepository) UsageCount(ctx context.Context, id uint64) (count int64, err error) {
	err = r.db.WithContext(ctx).Model(&PhotoTag{}).Where("tag_id = ?", id).Count(&count).Error
	return
}

// Delete removes the tag's links to photos and then the tag, in one transaction
func (r *TagRepository) Delete(ctx context.Context, id uint64) error {
	err := db.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", id).Delete(&PhotoTag{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&Tag{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete tag %d: %w", id, err)
	}
	return nil
}

func (r *TagRepository) NameExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Tag{}).Where("name_key = ?", foldName(strings.TrimSpace(name))).Count(&count).Error
	return count > 0, err
}
