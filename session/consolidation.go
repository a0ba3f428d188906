package session

import (
	"context"
	"organizer/models"
	"time"

	"k8s.io/klog/v2"
)

const dateLabelFormat = "01/02/2006"

// Result reports what a consolidation run did
type Result struct {
	Skipped      bool     `json:"skipped"`
	DateFolderID uint64   `json:"date_folder_id,omitempty"`
	DateFolder   string   `json:"date_folder,omitempty"`
	Merged       []uint64 `json:"merged"`
	Photos       int      `json:"photos"`
}

// Consolidator merges the session folders created yesterday into a folder
// named after yesterday's date, at most once per day.
type Consolidator struct {
	repos    *models.Repositories
	settings *models.SettingStore
	now      func() time.Time
}

func NewConsolidator(repos *models.Repositories, settings *models.SettingStore, now func() time.Time) *Consolidator {
	if now == nil {
		now = time.Now
	}
	return &Consolidator{repos: repos, settings: settings, now: now}
}

// Run does the day's consolidation. It is skipped if it already completed
// today. The run is only marked complete once every folder has been merged,
// so an interrupted run picks up the remaining folders next time.
func (c *Consolidator) Run(ctx context.Context) (Result, error) {
	result := Result{Merged: []uint64{}}
	now := c.now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterdayStart := todayStart.AddDate(0, 0, -1)
	today := todayStart.Format(dayFormat)

	lastRun := ""
	if _, err := c.settings.Get(ctx, lastRunKey, &lastRun); err != nil {
		return result, err
	}
	if lastRun == today {
		result.Skipped = true
		return result, nil
	}

	label := yesterdayStart.Format(dateLabelFormat)
	folders, err := c.repos.Folders.CreatedBetween(ctx, yesterdayStart.UnixMilli(), todayStart.UnixMilli())
	if err != nil {
		return result, err
	}
	candidates := []models.Folder{}
	for _, f := range folders {
		// User folders and earlier date folders stay where they are
		if f.Session {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) > 0 {
		dateFolder, err := c.dateFolder(ctx, label)
		if err != nil {
			return result, err
		}
		result.DateFolderID = dateFolder
		result.DateFolder = label
		for _, f := range candidates {
			moved, err := c.merge(ctx, f.ID, dateFolder)
			if err != nil {
				klog.Errorf("Consolidation of folder %d (%q) failed: %v", f.ID, f.Name, err)
				return result, err
			}
			result.Merged = append(result.Merged, f.ID)
			result.Photos += moved
		}
		klog.Infof("Consolidated %d folders (%d photos) into %q", len(result.Merged), result.Photos, label)
	}
	return result, c.settings.Set(ctx, lastRunKey, today)
}

func (c *Consolidator) dateFolder(ctx context.Context, label string) (uint64, error) {
	folder, err := c.repos.Folders.GetByName(ctx, label)
	if err != nil {
		return 0, err
	}
	if folder != nil {
		return folder.ID, nil
	}
	return c.repos.Folders.Create(ctx, label, nil, nil)
}

// merge moves the photos of folder into target and deletes folder, in one
// transaction
func (c *Consolidator) merge(ctx context.Context, folder, target uint64) (moved int, err error) {
	err = c.repos.Transaction(ctx, func(tx *models.Repositories) error {
		photos, err := tx.Photos.GetByFolder(ctx, &folder, models.SortByDateAdded, models.SortAsc)
		if err != nil {
			return err
		}
		ids := make([]uint64, 0, len(photos))
		for _, p := range photos {
			ids = append(ids, p.ID)
		}
		if err = tx.Photos.MoveToFolder(ctx, ids, &target); err != nil {
			return err
		}
		moved = len(ids)
		return tx.Folders.Delete(ctx, folder)
	})
	return
}

// StartConsolidation runs the job now and then every interval until ctx is
// cancelled
func (c *Consolidator) StartConsolidation(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := c.Run(ctx); err != nil {
			klog.Errorf("Consolidation error: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
