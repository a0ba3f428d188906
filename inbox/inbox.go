// Package inbox imports image files dropped into a directory. Each imported
// file is removed from the directory afterwards.
package inbox

import (
	"context"
	"fmt"
	"organizer/models"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gabriel-vasile/mimetype"
	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

// Importer is satisfied by session.Controller, so inbox imports follow the
// active session
type Importer interface {
	Import(ctx context.Context, files []models.ImportFile, explicit *uint64) ([]uint64, error)
}

type Inbox struct {
	dir      string
	importer Importer
	// settle is how long a file must stay unchanged before it is imported
	settle time.Duration
}

func New(dir string, importer Importer) *Inbox {
	return &Inbox{dir: dir, importer: importer, settle: 2 * time.Second}
}

// Scan imports the image files currently in the directory (not recursing) and
// returns how many were imported
func (in *Inbox) Scan(ctx context.Context) (int, error) {
	paths := []string{}
	err := godirwalk.Walk(in.dir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if filepath.Clean(path) == filepath.Clean(in.dir) {
				return nil
			}
			if de.IsDir() {
				return godirwalk.SkipThis
			}
			if strings.HasPrefix(filepath.Base(path), ".") || !de.IsRegular() {
				return nil
			}
			paths = append(paths, path)
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", in.dir, err)
	}
	imported := 0
	for _, path := range paths {
		if ctx.Err() != nil {
			return imported, ctx.Err()
		}
		ok, err := in.importFile(ctx, path)
		if err != nil {
			klog.Errorf("Inbox import of %s failed: %v", path, err)
			continue
		}
		if ok {
			imported++
		}
	}
	return imported, nil
}

// importFile reports false for files that are not images; those stay put
func (in *Inbox) importFile(ctx context.Context, path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		klog.V(1).Infof("Inbox skipping %s (%s)", path, mt.String())
		return false, nil
	}
	file := models.ImportFile{
		Data:         data,
		Name:         filepath.Base(path),
		MimeType:     mt.String(),
		Size:         info.Size(),
		LastModified: info.ModTime().UnixMilli(),
	}
	if _, err = in.importer.Import(ctx, []models.ImportFile{file}, nil); err != nil {
		return false, err
	}
	if err = os.Remove(path); err != nil {
		klog.Warningf("Imported %s but cannot remove it: %v", path, err)
	}
	return true, nil
}

// Watch imports what is already in the directory and then every file created
// or written there, once it has stopped changing. It returns when ctx is
// cancelled.
func (in *Inbox) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	defer w.Close()
	if err = w.Add(in.dir); err != nil {
		return fmt.Errorf("watch %s: %w", in.dir, err)
	}
	klog.Infof("Watching inbox %s", in.dir)
	if count, err := in.Scan(ctx); err != nil {
		klog.Errorf("Inbox scan error: %v", err)
	} else if count > 0 {
		klog.Infof("Imported %d file(s) from inbox", count)
	}

	ready := make(chan string)
	stopped := make(chan struct{})
	defer close(stopped)
	var mutex sync.Mutex
	timers := map[string]*time.Timer{}
	defer func() {
		mutex.Lock()
		for _, t := range timers {
			t.Stop()
		}
		mutex.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue
			}
			path := event.Name
			mutex.Lock()
			if t, ok := timers[path]; ok {
				t.Reset(in.settle)
			} else {
				timers[path] = time.AfterFunc(in.settle, func() {
					mutex.Lock()
					delete(timers, path)
					mutex.Unlock()
					select {
					case ready <- path:
					case <-stopped:
					}
				})
			}
			mutex.Unlock()
		case path := <-ready:
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			if ok, err := in.importFile(ctx, path); err != nil {
				klog.Errorf("Inbox import of %s failed: %v", path, err)
			} else if ok {
				klog.Infof("Imported %s from inbox", filepath.Base(path))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			klog.Errorf("Inbox watcher error: %v", err)
		}
	}
}
