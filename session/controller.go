// Package session tracks the active capture session, routes imports into its
// folder and merges the previous day's session folders into one date folder.
package session

import (
	"context"
	"errors"
	"fmt"
	"organizer/models"
	"strings"
	"sync"
	"time"

	"k8s.io/klog/v2"
)

const (
	activeKey  = "active_session"
	counterKey = "session_counter"
	lastRunKey = "consolidation_last_run"

	dayFormat = "2006-01-02"
)

var ErrSessionActive = errors.New("a session is already active")

// State describes the active session. A nil *State means no session.
type State struct {
	Active     bool   `json:"active"`
	FolderID   uint64 `json:"folder_id"`
	FolderName string `json:"folder_name"`
	StartTime  int64  `json:"start_time"`
}

type dailyCounter struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type Controller struct {
	mutex    sync.Mutex
	repos    *models.Repositories
	settings *models.SettingStore
	now      func() time.Time
}

// NewController uses now for session times and the daily counter; nil means
// time.Now.
func NewController(repos *models.Repositories, settings *models.SettingStore, now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{repos: repos, settings: settings, now: now}
}

// Current returns the active session or nil. A session whose folder has been
// deleted is ended here.
func (c *Controller) Current(ctx context.Context) (*State, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.current(ctx)
}

func (c *Controller) current(ctx context.Context) (*State, error) {
	state := State{}
	found, err := c.settings.Get(ctx, activeKey, &state)
	if err != nil || !found {
		return nil, err
	}
	folder, err := c.repos.Folders.GetByID(ctx, state.FolderID)
	if err != nil {
		return nil, err
	}
	if folder == nil {
		klog.Warningf("Session folder %d (%q) is gone, ending session", state.FolderID, state.FolderName)
		return nil, c.settings.Delete(ctx, activeKey)
	}
	state.Active = true
	state.FolderName = folder.Name
	return &state, nil
}

// NextSessionNumber increments and returns today's session counter. The
// counter starts again at 1 on a new day.
func (c *Controller) NextSessionNumber(ctx context.Context) (int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.nextSessionNumber(ctx)
}

func (c *Controller) nextSessionNumber(ctx context.Context) (int, error) {
	counter, err := c.peekCounter(ctx)
	if err != nil {
		return 0, err
	}
	if err = c.settings.Set(ctx, counterKey, counter); err != nil {
		return 0, err
	}
	return counter.Count, nil
}

// peekCounter returns the counter as it will be once today's next session
// is numbered, without saving it
func (c *Controller) peekCounter(ctx context.Context) (dailyCounter, error) {
	today := c.now().Format(dayFormat)
	counter := dailyCounter{}
	found, err := c.settings.Get(ctx, counterKey, &counter)
	if err != nil {
		return counter, err
	}
	if !found || counter.Date != today {
		counter = dailyCounter{Date: today}
	}
	counter.Count++
	return counter, nil
}

// Start creates the session folder and makes it the import target. An empty
// name becomes "Session N". Starting while a session is active fails with
// ErrSessionActive.
func (c *Controller) Start(ctx context.Context, name string) (*State, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	active, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, ErrSessionActive
	}
	counter, err := c.peekCounter(ctx)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Session %d", counter.Count)
	}
	started := c.now()
	if name, err = c.freeName(ctx, name, started); err != nil {
		return nil, err
	}
	folderID, err := c.repos.Folders.CreateSession(ctx, name)
	if err != nil {
		return nil, err
	}
	state := &State{
		Active:     true,
		FolderID:   folderID,
		FolderName: name,
		StartTime:  started.UnixMilli(),
	}
	// The number is only used up once the folder exists
	if err = c.settings.Set(ctx, counterKey, counter); err == nil {
		err = c.settings.Set(ctx, activeKey, state)
	}
	if err != nil {
		if derr := c.repos.Folders.Delete(ctx, folderID); derr != nil {
			klog.Errorf("Cannot remove folder %d of a session that failed to start: %v", folderID, derr)
		}
		return nil, err
	}
	klog.Infof("Session started: %q, folder %d", name, folderID)
	return state, nil
}

// freeName suffixes name with the start time when a folder already uses it
func (c *Controller) freeName(ctx context.Context, name string, at time.Time) (string, error) {
	for _, layout := range []string{"", "2006-01-02 15:04:05", "2006-01-02 15:04:05.000"} {
		candidate := name
		if layout != "" {
			candidate = fmt.Sprintf("%s (%s)", name, at.Format(layout))
		}
		exists, err := c.repos.Folders.NameExists(ctx, candidate, nil)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return fmt.Sprintf("%s (%d)", name, at.UnixNano()), nil
}

// Stop ends the active session and returns it; its folder and photos stay.
// Stopping with no active session does nothing.
func (c *Controller) Stop(ctx context.Context) (*State, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	state, err := c.current(ctx)
	if err != nil || state == nil {
		return nil, err
	}
	if err = c.settings.Delete(ctx, activeKey); err != nil {
		return nil, err
	}
	state.Active = false
	klog.Infof("Session stopped: %q", state.FolderName)
	return state, nil
}

// ImportTarget returns explicit when set, otherwise the active session's
// folder, otherwise nil (uncategorized).
func (c *Controller) ImportTarget(ctx context.Context, explicit *uint64) (*uint64, error) {
	if explicit != nil {
		return explicit, nil
	}
	state, err := c.Current(ctx)
	if err != nil || state == nil {
		return nil, err
	}
	return &state.FolderID, nil
}

// Import imports files into ImportTarget(explicit)
func (c *Controller) Import(ctx context.Context, files []models.ImportFile, explicit *uint64) ([]uint64, error) {
	target, err := c.ImportTarget(ctx, explicit)
	if err != nil {
		return nil, err
	}
	return c.repos.Photos.Import(ctx, files, target)
}
