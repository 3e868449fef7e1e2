package gallery

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ayusman/tinsel/internal/scene"
)

// DefaultSettle is how long a dropped file must stay unchanged before it is
// ingested, so half-copied files are not read.
const DefaultSettle = 500 * time.Millisecond

// Watcher ingests image files that appear in a drop directory.
type Watcher struct {
	gallery *Gallery
	dir     string
	settle  time.Duration
	// OnAdd, if set, is called for every photo the watcher ingests.
	OnAdd func(scene.Object)

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewWatcher creates a watcher for dir. A non-positive settle uses
// DefaultSettle.
func NewWatcher(g *Gallery, dir string, settle time.Duration) *Watcher {
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Watcher{
		gallery: g,
		dir:     dir,
		settle:  settle,
		pending: make(map[string]*time.Timer),
	}
}

// Run ingests the files already in the directory, then watches it until ctx
// is done.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("create drop dir: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	log.Printf("Watching %s for photos", w.dir)

	w.scan()

	defer w.stopPending()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename) {
				w.schedule(event.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Printf("Drop dir watch error: %v", err)
		}
	}
}

func (w *Watcher) scan() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		log.Printf("Failed to read drop dir: %v", err)
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			w.add(filepath.Join(w.dir, e.Name()))
		}
	}
}

// schedule (re)starts the settle timer for path.
func (w *Watcher) schedule(path string) {
	if !IsPhotoName(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.add(path)
	})
}

func (w *Watcher) add(path string) {
	if !IsPhotoName(path) {
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	o, err := w.gallery.AddFile(path)
	if err != nil {
		log.Printf("Skipping dropped file %s: %v", filepath.Base(path), err)
		return
	}
	if w.OnAdd != nil {
		w.OnAdd(o)
	}
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}
