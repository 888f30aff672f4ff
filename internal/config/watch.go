package config

import (
	"context"
	"fmt"
	"os"
	"time"
)

// RoomsWatcher polls the room catalog file and hands every new valid
// version to onUpdate. Files that fail to parse or validate are reported
// through onError and skipped; the previous catalog stays in effect.
type RoomsWatcher struct {
	path     string
	interval time.Duration
	onUpdate func(*RoomsConfig)
	onError  func(error)
	lastMod  time.Time
}

func NewRoomsWatcher(path string, interval time.Duration, onUpdate func(*RoomsConfig), onError func(error)) *RoomsWatcher {
	if path == "" {
		path = "configs/rooms.yaml"
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if onError == nil {
		onError = func(error) {}
	}
	return &RoomsWatcher{path: path, interval: interval, onUpdate: onUpdate, onError: onError}
}

// Load reads the catalog unconditionally. An error here is fatal for
// callers that require a catalog at startup.
func (w *RoomsWatcher) Load() error {
	info, err := os.Stat(w.path)
	if err != nil {
		return fmt.Errorf("stat rooms config: %w", err)
	}
	cfg, err := LoadRoomsConfig(w.path)
	if err != nil {
		return err
	}
	w.lastMod = info.ModTime()
	if w.onUpdate != nil {
		w.onUpdate(cfg)
	}
	return nil
}

// Poll reloads the catalog if the file changed since the last successful
// load and reports whether onUpdate was called.
func (w *RoomsWatcher) Poll() (bool, error) {
	info, err := os.Stat(w.path)
	if err != nil {
		return false, fmt.Errorf("stat rooms config: %w", err)
	}
	if !info.ModTime().After(w.lastMod) {
		return false, nil
	}
	cfg, err := LoadRoomsConfig(w.path)
	if err != nil {
		return false, err
	}
	w.lastMod = info.ModTime()
	if w.onUpdate != nil {
		w.onUpdate(cfg)
	}
	return true, nil
}

// Run polls until ctx is cancelled.
func (w *RoomsWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Poll(); err != nil {
				w.onError(err)
			}
		}
	}
}

// WatchRooms loads the catalog once and keeps polling it in the background
// until ctx is cancelled.
func WatchRooms(ctx context.Context, path string, interval time.Duration, onUpdate func(*RoomsConfig), onError func(error)) error {
	w := NewRoomsWatcher(path, interval, onUpdate, onError)
	if err := w.Load(); err != nil {
		return err
	}
	go w.Run(ctx)
	return nil
}
