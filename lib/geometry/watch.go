package geometry

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fosdem/meshview/lib/config"
	"github.com/fosdem/meshview/lib/metrics"
	"github.com/jhenstridge/go-inotify"
)

// Watcher re-parses the config file when it is rewritten and hands the
// result to the render thread, which is the only one allowed to Load it.
type Watcher struct {
	path    string
	Reloads chan *config.Config

	watcher *inotify.Watcher
	log     *slog.Logger
}

// Watch follows the directory rather than the file so editors that save by
// renaming are noticed too.
func Watch(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := inotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not start inotify watcher: %w", err)
	}
	_, err = watcher.Watch(filepath.Dir(abs))
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("could not watch %s: %w", abs, err)
	}

	w := &Watcher{
		path:    abs,
		Reloads: make(chan *config.Config, 1),
		watcher: watcher,
		log:     slog.With(slog.String("module", "watch")),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) relevant(ev inotify.Event) bool {
	if ev.Mask&(inotify.IN_CLOSE_WRITE|inotify.IN_MOVED_TO) == 0 {
		return false
	}
	return filepath.Base(ev.Name) == filepath.Base(w.path)
}

func (w *Watcher) run() {
	defer close(w.Reloads)
	for ev := range w.watcher.Event {
		if !w.relevant(ev) {
			continue
		}
		w.log.Debug("Reloading config due to inotify event")
		time.Sleep(100 * time.Millisecond)

		cfg, err := config.Parse(w.path)
		if err != nil {
			w.log.Error(fmt.Sprintf("Not reloading, config is invalid: %s", err))
			metrics.GeometryReloads.WithLabelValues("invalid").Inc()
			continue
		}
		w.offer(cfg)
	}
}

// offer replaces a reload the render thread has not picked up yet
func (w *Watcher) offer(cfg *config.Config) {
	for {
		select {
		case w.Reloads <- cfg:
			return
		default:
		}
		select {
		case <-w.Reloads:
		default:
		}
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
