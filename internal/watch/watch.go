package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/zeebo/blake3"
)

// Event is a wrapper around fsnotify.Event
type Event struct {
	Name string
	Op   fsnotify.Op
}

// Watcher reports changes below a directory tree after a debounce window.
type Watcher struct {
	watcher  *fsnotify.Watcher
	root     string
	debounce time.Duration
	onChange func(Event)

	// content hashes of files seen so far, owned by the Run goroutine
	hashes map[string][32]byte

	timerMu sync.Mutex
	timer   *time.Timer
}

// New creates a watcher for root and every directory below it.
func New(root string, debounce time.Duration, onChange func(Event)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  fw,
		root:     root,
		debounce: debounce,
		onChange: onChange,
		hashes:   make(map[string][32]byte),
	}
	if err := w.addTree(root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// addTree registers dir and its subdirectories, skipping hidden ones like .git
func (w *Watcher) addTree(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != dir && filepath.Base(path)[0] == '.' {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// Run processes events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer func() {
		w.timerMu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.timerMu.Unlock()
		if err := w.watcher.Close(); err != nil {
			slog.Warn("Failed to close file watcher", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.changed(event) {
				continue
			}
			w.schedule(Event{Name: event.Name, Op: event.Op})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", "error", err)
		}
	}
}

// changed reports whether event should trigger a notification.
// Writes that leave the file content untouched are dropped.
func (w *Watcher) changed(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		delete(w.hashes, event.Name)
		return true
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		// Gone again before we looked; treat as a removal
		delete(w.hashes, event.Name)
		return true
	}

	if info.IsDir() {
		if event.Op&fsnotify.Create != 0 {
			if err := w.addTree(event.Name); err != nil {
				slog.Warn("Failed to watch new directory", "path", event.Name, "error", err)
			}
		}
		return true
	}

	sum, err := hashFile(event.Name)
	if err != nil {
		return true
	}
	if prev, ok := w.hashes[event.Name]; ok && prev == sum {
		return false
	}
	w.hashes[event.Name] = sum
	return true
}

func (w *Watcher) schedule(e Event) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.onChange(e)
	})
}

func hashFile(path string) ([32]byte, error) {
	var sum [32]byte

	f, err := os.Open(path)
	if err != nil {
		return sum, err
	}
	defer func() { _ = f.Close() }()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return sum, err
	}
	copy(sum[:], h.Sum(nil))
	return sum, nil
}
