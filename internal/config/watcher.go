package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
)

// DefaultDebounce coalesces the burst of events editors produce on save.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reports changes to the YAML files of a loaded configuration.
// It watches directories rather than files so atomic renames are seen.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dirs     map[string]struct{}
	Debounce time.Duration
}

func NewWatcher(res *LoadResult) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}
	w := &Watcher{
		watcher:  fw,
		dirs:     make(map[string]struct{}),
		Debounce: DefaultDebounce,
	}
	if err := w.Track(res); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Track adds the directories of every file in res. Directories that do not
// exist yet are skipped; the main file's directory is created on first save.
func (w *Watcher) Track(res *LoadResult) error {
	if res == nil {
		return nil
	}
	paths := append([]string{res.Path}, res.Files...)
	dirs := lo.Uniq(lo.FilterMap(paths, func(p string, _ int) (string, bool) {
		if p == "" {
			return "", false
		}
		return filepath.Dir(p), true
	}))
	for _, dir := range dirs {
		if _, ok := w.dirs[dir]; ok {
			continue
		}
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			continue
		} else if err != nil {
			return err
		}
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		w.dirs[dir] = struct{}{}
	}
	return nil
}

// Dirs returns the watched directories.
func (w *Watcher) Dirs() []string {
	return lo.Keys(w.dirs)
}

// Run calls onChange after relevant changes settle, until ctx is done or the
// watcher is closed. Watch errors are passed to onError when it is non-nil.
func (w *Watcher) Run(ctx context.Context, onChange func(), onError func(error)) {
	var timer *time.Timer
	var fire <-chan time.Time

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			onChange()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if onError != nil {
				onError(err)
			}

		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	ext := strings.ToLower(filepath.Ext(event.Name))
	return ext == ".yaml" || ext == ".yml"
}
