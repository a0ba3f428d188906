// Package processing runs background tasks over imported photos. Each task
// runs at most once per photo; results are kept in processing_tasks.
package processing

import (
	"context"
	"organizer/config"
	"organizer/db"
	"organizer/models"
	"sort"
	"time"

	"gorm.io/gorm"
	"k8s.io/klog/v2"
)

type processingTask interface {
	getName() string
	shouldHandle(*models.Photo) bool
	process(context.Context, *gorm.DB, *models.Photo) int
}

var (
	tasks = map[string]processingTask{}
)

func registerTask(t processingTask) {
	tasks[t.getName()] = t
}

func Init() {
	if err := Migrate(db.Instance); err != nil {
		klog.Fatalf("Auto-migrate error: %v", err)
	}
	// Initialise all processing tasks
	registerTask(&thumb{})
	if config.EXIFTOOL {
		if md := newMetadata(); md != nil {
			registerTask(md)
		}
	}
}

func Migrate(tx *gorm.DB) error {
	return tx.AutoMigrate(&ProcessingTask{})
}

// processPending runs the registered tasks over photos imported before
// olderThan (ms) that have not seen every task yet. It returns how many
// photos were handled.
func processPending(ctx context.Context, tx *gorm.DB, olderThan int64) (int, error) {
	type pending struct {
		ID     uint64
		Status string
		Known  *uint64
	}
	// Collected up front, SQLite has a single connection
	rows := []pending{}
	err := tx.WithContext(ctx).
		Table("photos").
		Joins("LEFT JOIN processing_tasks ON (photos.id = processing_tasks.photo_id)").
		Select("photos.id AS id, COALESCE(processing_tasks.status, '') AS status, processing_tasks.photo_id AS known").
		Where("photos.date_added < ? AND (processing_tasks.photo_id IS NULL OR processing_tasks.tasks < ?)", olderThan, len(tasks)).
		Order("photos.id").
		Scan(&rows).Error
	if err != nil {
		return 0, err
	}
	repos := models.NewRepositories(tx, nil)
	for _, row := range rows {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		photo, err := repos.Photos.GetByID(ctx, row.ID)
		if err != nil {
			klog.Errorf("processPending load photo error: %v", err)
			continue
		}
		current := ProcessingTask{
			PhotoID: row.ID,
			Status:  row.Status,
		}
		statusMap := current.statusToMap()
		if photo != nil {
			for _, taskName := range taskNames() {
				task := tasks[taskName]
				if _, ok := statusMap[taskName]; ok {
					// One try for each task
					continue
				}
				if !task.shouldHandle(photo) {
					statusMap[taskName] = Skipped
					continue
				}
				start := time.Now()
				statusMap[taskName] = task.process(ctx, tx, photo)
				klog.V(1).Infof("Task %s, photo: %d, result: %d, time: %v", taskName, photo.ID, statusMap[taskName], time.Since(start).Milliseconds())
			}
		}
		current.updateWith(statusMap)
		if photo == nil {
			// Deleted meanwhile
			continue
		}
		if row.Known == nil {
			err = tx.WithContext(ctx).Create(&current).Error
		} else {
			err = tx.WithContext(ctx).Save(&current).Error
		}
		if err != nil {
			klog.Errorf("processPending save task error: %v", err)
		}
	}
	return len(rows), nil
}

func taskNames() []string {
	names := make([]string, 0, len(tasks))
	for name := range tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// cleanup drops the records of photos that no longer exist
func cleanup(ctx context.Context, tx *gorm.DB) error {
	return tx.WithContext(ctx).
		Where("photo_id NOT IN (?)", tx.Model(&models.Photo{}).Select("id")).
		Delete(&ProcessingTask{}).Error
}

// StartProcessing polls for pending photos every PROCESSING_INTERVAL seconds
// until ctx is cancelled
func StartProcessing(ctx context.Context) {
	interval := time.Duration(config.PROCESSING_INTERVAL) * time.Second
	for {
		// Give fresh imports a moment to settle
		olderThan := time.Now().Add(-interval).UnixMilli()
		count, err := processPending(ctx, db.Instance, olderThan)
		if err != nil {
			klog.Errorf("processPending error: %v", err)
		} else if count > 0 {
			klog.Infof("Processed %d photos", count)
			if err = cleanup(ctx, db.Instance); err != nil {
				klog.Errorf("Processing cleanup error: %v", err)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}
