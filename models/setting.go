package models

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Setting is one small value kept across restarts, stored as JSON. Settings
// live outside the photo/folder/tag transactions.
type Setting struct {
	Key       string `gorm:"type:varchar(100);primaryKey"`
	Value     string `gorm:"type:text"`
	UpdatedAt int64  `gorm:"autoUpdateTime:milli"`
}

type SettingStore struct {
	db *gorm.DB
}

func NewSettingStore(db *gorm.DB) *SettingStore {
	return &SettingStore{db: db}
}

// Get decodes the value stored under key into v. It reports false, leaving v
// untouched, when the key has never been set.
func (s *SettingStore) Get(ctx context.Context, key string, v any) (bool, error) {
	settings := []Setting{}
	if err := s.db.WithContext(ctx).Where("`key` = ?", key).Limit(1).Find(&settings).Error; err != nil {
		return false, err
	}
	if len(settings) == 0 {
		return false, nil
	}
	if err := json.Unmarshal([]byte(settings[0].Value), v); err != nil {
		return false, fmt.Errorf("setting %s: %w", key, err)
	}
	return true, nil
}

func (s *SettingStore) Set(ctx context.Context, key string, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	setting := Setting{Key: key, Value: string(value)}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "key"}}, DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"})}).
		Create(&setting).Error
}

func (s *SettingStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("`key` = ?", key).Delete(&Setting{}).Error
}
