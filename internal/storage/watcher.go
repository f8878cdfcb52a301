package storage

import (
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"inkwell/internal/models"
)

// selfWriteGrace is how long after one of our own writes a filesystem
// event on the same key is attributed to us rather than an outside editor.
const selfWriteGrace = 2 * time.Second

// Watcher observes the data directory and records an audit warning when
// a persisted record is modified by something other than the store
// (external editors, sync tools, stray scripts). Purely an integrity
// signal; nothing is reloaded automatically.
type Watcher struct {
	store   *Store
	sink    AuditSink
	watcher *fsnotify.Watcher

	debounce map[string]*time.Timer
	done     chan struct{}
}

// NewWatcher creates a watcher over the store's data directory
func NewWatcher(store *Store, sink AuditSink) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(store.BaseDir()); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		store:    store,
		sink:     sink,
		watcher:  fsw,
		debounce: make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}, nil
}

// Start runs the event loop until Close is called
func (w *Watcher) Start() {
	log.Printf("👁️  [INTEGRITY] Watching %s for external changes", w.store.BaseDir())

	go func() {
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				w.handleEvent(event)

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("⚠️  [INTEGRITY] File watcher error: %v", err)

			case <-w.done:
				return
			}
		}
	}()
}

// Close stops the watcher
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if !strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".tmp") {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
		return
	}

	key := strings.TrimSuffix(name, ".json")
	if w.store.WrittenWithin(key, selfWriteGrace) {
		return
	}

	// Debounce: editors fire several events per save
	if timer, ok := w.debounce[key]; ok {
		timer.Stop()
	}
	op := event.Op.String()
	w.debounce[key] = time.AfterFunc(500*time.Millisecond, func() {
		log.Printf("⚠️  [INTEGRITY] External change detected for key %s (%s)", key, op)
		w.sink.Append(models.AuditRecord{
			Level:    models.LogLevelWarning,
			Category: models.CategoryStorage,
			Action:   "external_change",
			Message:  "Data file modified outside the application: " + key,
			Status:   models.StatusSuccess,
			Details:  map[string]interface{}{"key": key, "op": op},
		})
	})
}
