// Package watch re-runs a build when files under the watched directories
// change. fsnotify does not recurse, so every directory is added on its own
// and directories created later are picked up as they appear.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/tsapi/errors"
	"github.com/teranos/tsapi/logger"
)

// Trigger runs after a quiet period with the paths changed since the last run
type Trigger func(ctx context.Context, changed []string) error

// Watcher debounces file events into Trigger calls
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	trigger  Trigger
	ignore   []func(path string) bool
	log      *zap.SugaredLogger
}

// New watches dirs and everything below them
func New(dirs []string, debounce time.Duration, trigger Trigger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	w := &Watcher{
		watcher:  fw,
		debounce: debounce,
		trigger:  trigger,
		log:      logger.ComponentLogger("watch"),
	}
	for _, dir := range dirs {
		if err := w.addTree(dir); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Ignore drops events for paths accepted by fn, and skips such
// directories when adding watches
func (w *Watcher) Ignore(fn func(path string) bool) {
	w.ignore = append(w.ignore, fn)
}

// Watched returns the watched directories, sorted
func (w *Watcher) Watched() []string {
	list := w.watcher.WatchList()
	sort.Strings(list)
	return list
}

func (w *Watcher) ignored(path string) bool {
	for _, fn := range w.ignore {
		if fn(path) {
			return true
		}
	}
	return false
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// directories can vanish between listing and watching
			if os.IsNotExist(err) {
				return nil
			}
			return errors.Wrapf(err, "failed to walk %s", path)
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return errors.Wrapf(err, "failed to watch %s", path)
		}
		w.log.Debugw("Watching", logger.FieldDir, path)
		return nil
	})
}

// Run processes events until ctx is done. Trigger failures are logged and
// watching continues.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	pending := make(map[string]bool)
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.log.Warnw("Cannot watch new directory", logger.FieldDir, event.Name, logger.FieldError, err)
					}
				}
			}
			w.log.Debugw("File changed", logger.FieldFile, event.Name, "op", event.Op.String())
			pending[event.Name] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			sort.Strings(changed)
			pending = make(map[string]bool)

			if err := w.trigger(ctx, changed); err != nil {
				w.log.Warnw("Watch run failed", logger.FieldError, err, logger.FieldCount, len(changed))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("Watcher error", logger.FieldError, err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return !w.ignored(event.Name)
}

// UnderAny accepts paths equal to or inside one of dirs
func UnderAny(dirs ...string) func(path string) bool {
	return func(path string) bool {
		for _, dir := range dirs {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				continue
			}
			if rel == "." || (rel != ".." && !startsWithParent(rel)) {
				return true
			}
		}
		return false
	}
}

// OneOf accepts exactly the given paths
func OneOf(paths ...string) func(path string) bool {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[filepath.Clean(p)] = true
	}
	return func(path string) bool {
		return set[filepath.Clean(path)]
	}
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
