package collection

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/metamesh-ai/metamesh/logging"
)

// Watcher reloads a collection when its markdown files change on disk.
// Editor save bursts are absorbed by a debounce window; subscribers receive
// the freshly loaded collection (or a load error) per settled change.
type Watcher struct {
	dir     string
	opts    []Option
	logger  logging.Logger
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	reloads  chan Reload
	debounce time.Duration
}

// Reload is one watcher notification: the reloaded collection or the error
// that prevented loading it.
type Reload struct {
	Collection *Collection
	Err        error
}

// NewWatcher creates a watcher over a collection directory. Load options are
// reused for every reload.
func NewWatcher(dir string, logger logging.Logger, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Watcher{
		dir:      dir,
		opts:     opts,
		logger:   logger,
		watcher:  fsw,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		reloads:  make(chan Reload, 1),
		debounce: 500 * time.Millisecond,
	}, nil
}

// Reloads returns the notification channel. It is closed when the watcher
// stops.
func (w *Watcher) Reloads() <-chan Reload { return w.reloads }

// Start begins watching the collection root plus its agents/ and context/
// subdirectories. Non-blocking.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	for _, d := range []string{w.dir, filepath.Join(w.dir, AgentsDir), filepath.Join(w.dir, ContextDir)} {
		if err := w.watcher.Add(d); err != nil {
			w.logger.Warn("collection watch failed", "dir", d, "error", err)
		}
	}

	go w.run()
	return nil
}

// Stop terminates the watcher and waits for the event loop to drain.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	_ = w.watcher.Close()
}

func (w *Watcher) run() {
	defer close(w.doneCh)
	defer close(w.reloads)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !relevant(ev) {
				continue
			}
			w.logger.Debug("collection change", "file", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			c, err := Load(w.dir, w.opts...)
			if err != nil {
				w.logger.Error("collection reload failed", "dir", w.dir, "error", err)
			}
			select {
			case w.reloads <- Reload{Collection: c, Err: err}:
			default:
				// subscriber lagging; drop in favor of the next settle
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("collection watcher error", "error", err)
		}
	}
}

// relevant filters events to markdown writes/creates/renames/removes.
func relevant(ev fsnotify.Event) bool {
	if !strings.HasSuffix(ev.Name, ".md") {
		return false
	}
	return ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) ||
		ev.Op.Has(fsnotify.Rename) || ev.Op.Has(fsnotify.Remove)
}
