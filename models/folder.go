package models

import (
	"context"
	"fmt"
	"organizer/db"
	"sort"
	"strings"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"gorm.io/gorm"
	"k8s.io/klog/v2"
)

type Folder struct {
	ID           uint64  `gorm:"primaryKey" json:"id"`
	Name         string  `gorm:"type:varchar(300);not null" json:"name"`
	NameKey      string  `gorm:"type:varchar(300);not null;uniqueIndex" json:"-"`
	Description  *string `gorm:"type:varchar(1000)" json:"description"`
	Color        *string `gorm:"type:varchar(20)" json:"color"`
	CreatedAt    int64   `gorm:"index;autoCreateTime:false" json:"created_at"`
	SortOrder    int     `gorm:"not null;default:0" json:"sort_order"`
	CoverPhotoID *uint64 `json:"cover_photo_id"`
	Session      bool    `gorm:"not null;default:false" json:"session"`
	PhotoCount   int64   `gorm:"-" json:"photo_count"`
}

func (f *Folder) BeforeSave(tx *gorm.DB) (err error) {
	f.Name = strings.TrimSpace(f.Name)
	f.NameKey = foldName(f.Name)
	return
}

// reservedNames holds the names being created right now, so two concurrent
// creates of the same name cannot both pass the existence check.
var reservedNames = cmap.New[struct{}]()

func reserveName(kind, name string) (release func(), ok bool) {
	key := kind + ":" + foldName(strings.TrimSpace(name))
	if !reservedNames.SetIfAbsent(key, struct{}{}) {
		return nil, false
	}
	return func() { reservedNames.Remove(key) }, true
}

type FolderRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// Create adds a folder and returns its id. A name that already exists,
// compared case-insensitively, is a ValidationError.
func (r *FolderRepository) Create(ctx context.Context, name string, description, color *string) (uint64, error) {
	return r.create(ctx, Folder{Name: name, Description: description, Color: color})
}

// CreateSession is Create for a capture session's folder. Only session
// folders are merged by the nightly consolidation.
func (r *FolderRepository) CreateSession(ctx context.Context, name string) (uint64, error) {
	return r.create(ctx, Folder{Name: name, Session: true})
}

func (r *FolderRepository) create(ctx context.Context, folder Folder) (uint64, error) {
	name := strings.TrimSpace(folder.Name)
	if name == "" {
		return 0, &ValidationError{Field: "name", Message: "cannot be empty"}
	}
	release, ok := reserveName("folder", name)
	if !ok {
		return 0, duplicateName(name)
	}
	defer release()

	exists, err := r.NameExists(ctx, name, nil)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, duplicateName(name)
	}
	folder.Name = name
	folder.CreatedAt = r.now().UnixMilli()
	if err = r.db.WithContext(ctx).Create(&folder).Error; err != nil {
		if isUniqueViolation(err) {
			return 0, duplicateName(name)
		}
		return 0, fmt.Errorf("create folder: %w", err)
	}
	klog.Infof("Folder %d created: %q", folder.ID, folder.Name)
	return folder.ID, nil
}

// GetAll returns every folder with its photo count, newest first
func (r *FolderRepository) GetAll(ctx context.Context) ([]Folder, error) {
	folders := []Folder{}
	tx := r.db.WithContext(ctx)
	if err := tx.Find(&folders).Error; err != nil {
		return nil, err
	}
	counts, err := countsByFolder(tx)
	if err != nil {
		return nil, err
	}
	for i := range folders {
		folders[i].PhotoCount = counts[folders[i].ID]
	}
	sort.SliceStable(folders, func(i, j int) bool {
		return folders[i].CreatedAt > folders[j].CreatedAt
	})
	return folders, nil
}

// GetByID returns the folder with its photo count, or nil if it doesn't exist
func (r *FolderRepository) GetByID(ctx context.Context, id uint64) (*Folder, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByName finds a folder by name, case-insensitively
func (r *FolderRepository) GetByName(ctx context.Context, name string) (*Folder, error) {
	return r.first(ctx, "name_key = ?", foldName(strings.TrimSpace(name)))
}

func (r *FolderRepository) first(ctx context.Context, query string, args ...any) (*Folder, error) {
	folders := []Folder{}
	tx := r.db.WithContext(ctx)
	if err := tx.Where(query, args...).Limit(1).Find(&folders).Error; err != nil {
		return nil, err
	}
	if len(folders) == 0 {
		return nil, nil
	}
	folder := &folders[0]
	if err := tx.Model(&Photo{}).Where("folder_id = ?", folder.ID).Count(&folder.PhotoCount).Error; err != nil {
		return nil, err
	}
	return folder, nil
}

// CreatedBetween lists the folders created in [from, to), in milliseconds
func (r *FolderRepository) CreatedBetween(ctx context.Context, from, to int64) ([]Folder, error) {
	folders := []Folder{}
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Find(&folders).Error
	return folders, err
}

// Rename changes the folder's name. The caller checks NameExists first; a
// collision that slips through is still rejected by the unique index.
func (r *FolderRepository) Rename(ctx context.Context, id uint64, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return &ValidationError{Field: "name", Message: "cannot be empty"}
	}
	err := r.db.WithContext(ctx).Model(&Folder{}).Where("id = ?", id).
		UpdateColumns(map[string]any{"name": newName, "name_key": foldName(newName)}).Error
	if isUniqueViolation(err) {
		return duplicateName(newName)
	}
	return err
}

// SetCover sets (or clears, with nil) the photo shown for the folder
func (r *FolderRepository) SetCover(ctx context.Context, id uint64, photoID *uint64) error {
	return db.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		if photoID != nil {
			var count int64
			if err := tx.Model(&Photo{}).Where("id = ?", *photoID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return &ValidationError{Field: "cover_photo_id", Message: fmt.Sprintf("photo %d does not exist", *photoID)}
			}
		}
		return tx.Model(&Folder{}).Where("id = ?", id).UpdateColumn("cover_photo_id", photoID).Error
	})
}

// Delete moves the folder's photos to uncategorized and then removes the
// folder, in one transaction.
func (r *FolderRepository) Delete(ctx context.Context, id uint64) error {
	err := db.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		photos := &PhotoRepository{db: tx, now: r.now}
		ids := []uint64{}
		if err := tx.Model(&Photo{}).Where("folder_id = ?", id).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if err := photos.MoveToFolder(ctx, ids, nil); err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&Folder{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete folder %d: %w", id, err)
	}
	return nil
}

// NameExists compares case-insensitively. excludeID, if set, is left out of
// the comparison so a folder can be "renamed" to its own name.
func (r *FolderRepository) NameExists(ctx context.Context, name string, excludeID *uint64) (bool, error) {
	var count int64
	tx := r.db.WithContext(ctx).Model(&Folder{}).Where("name_key = ?", foldName(strings.TrimSpace(name)))
	if excludeID != nil {
		tx = tx.Where("id <> ?", *excludeID)
	}
	if err := tx.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
