package models

import (
	"context"
	"organizer/db"
	"time"

	"gorm.io/gorm"
)

// Repositories bundles the repositories sharing one connection (or one
// transaction, see Transaction).
type Repositories struct {
	db        *gorm.DB
	now       func() time.Time
	Photos    *PhotoRepository
	Folders   *FolderRepository
	Tags      *TagRepository
	PhotoTags *PhotoTagRepository
}

// NewRepositories uses now as the clock for every timestamp it writes; nil
// means time.Now.
func NewRepositories(tx *gorm.DB, now func() time.Time) *Repositories {
	if now == nil {
		now = time.Now
	}
	return &Repositories{
		db:        tx,
		now:       now,
		Photos:    &PhotoRepository{db: tx, now: now},
		Folders:   &FolderRepository{db: tx, now: now},
		Tags:      &TagRepository{db: tx, now: now},
		PhotoTags: &PhotoTagRepository{db: tx, now: now},
	}
}

// Transaction runs fn with repositories bound to a single transaction. All
// of fn's changes are committed together or not at all.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return db.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		return fn(NewRepositories(tx, r.now))
	})
}
