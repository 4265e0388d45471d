// Package confwatcher contains a configuration file watcher.
package confwatcher

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	// two events fired in rapid succession (a truncate followed by a
	// write, or an editor writing through a temporary file) must
	// produce a single reload.
	minInterval = 1 * time.Second

	// wait some additional time after the event to avoid reading a
	// partially written file.
	additionalWait = 10 * time.Millisecond
)

// ConfWatcher is a configuration file watcher.
type ConfWatcher struct {
	FilePath string

	inner        *fsnotify.Watcher
	absolutePath string
	realPath     string

	// out
	signal chan struct{}
	done   chan struct{}
}

// Initialize initializes a ConfWatcher.
func (w *ConfWatcher) Initialize() error {
	if _, err := os.Stat(w.FilePath); err != nil {
		return err
	}

	var err error
	w.inner, err = fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// use absolute paths to support Darwin
	w.absolutePath, _ = filepath.Abs(w.FilePath)

	// watch the parent directory instead of the file itself, in order
	// to catch the atomic rename-over performed by most editors and by
	// orchestrators that swap a symlink target.
	err = w.inner.Add(filepath.Dir(w.absolutePath))
	if err != nil {
		w.inner.Close()
		return err
	}

	w.realPath, _ = filepath.EvalSymlinks(w.absolutePath)

	w.signal = make(chan struct{})
	w.done = make(chan struct{})

	go w.run()

	return nil
}

// Close closes a ConfWatcher.
func (w *ConfWatcher) Close() {
	go func() {
		for range w.signal {
		}
	}()
	w.inner.Close()
	<-w.done
}

func (w *ConfWatcher) run() {
	defer close(w.done)

	var lastSignal time.Time

outer:
	for {
		select {
		case event := <-w.inner.Events:
			if time.Since(lastSignal) < minInterval {
				continue
			}

			currentRealPath, _ := filepath.EvalSymlinks(w.absolutePath)

			switch {
			case currentRealPath == "":
				// the file (or the symlink target) was removed;
				// remember that in order to detect the recreation.
				w.realPath = ""

			case (event.Name == w.absolutePath &&
				(event.Op&(fsnotify.Write|fsnotify.Create)) != 0) ||
				currentRealPath != w.realPath:
				w.realPath = currentRealPath

				time.Sleep(additionalWait)

				lastSignal = time.Now()
				w.signal <- struct{}{}
			}

		case <-w.inner.Errors:
			break outer
		}
	}

	close(w.signal)
}

// Watch returns when the configuration file has changed.
func (w *ConfWatcher) Watch() chan struct{} {
	return w.signal
}
