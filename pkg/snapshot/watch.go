package snapshot

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mpapenbr/f1-driverstats-go/log"
)

// reloads triggered within this interval are merged
const watchDebounce = 250 * time.Millisecond

// WatchFiles reloads the holder whenever one of the files changes.
// The parent directories are watched so files replaced by rename are picked up as well.
// Watching stops when ctx is done.
//
//nolint:funlen,gocognit // by design
func (h *Holder) WatchFiles(ctx context.Context, paths ...string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	files := make(map[string]struct{}, len(paths))
	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			watcher.Close()
			return err
		}
		files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return err
		}
	}

	go func() {
		defer watcher.Close()
		var timer *time.Timer
		fire := make(chan struct{}, 1)
		for {
			select {
			case <-ctx.Done():
				h.log.Info("context done, stopping dataset watch")
				if timer != nil {
					timer.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					h.log.Info("watcher events channel closed, stopping dataset watch")
					return
				}
				name, _ := filepath.Abs(event.Name)
				if _, ok := files[name]; !ok {
					continue
				}
				h.log.Debug("change detected",
					log.String("file", event.Name), log.String("op", event.Op.String()))
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Chmod) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(watchDebounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			case <-fire:
				if _, err := h.Reload(ctx); err != nil {
					h.log.Warn("keeping previous dataset", log.ErrorField(err))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					h.log.Info("watcher errors channel closed, stopping dataset watch")
					return
				}
				h.log.Error("watcher error", log.ErrorField(err))
			}
		}
	}()
	return nil
}
