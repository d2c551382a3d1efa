package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// StopFilename is the control file that cancels a run: creating it in
// the project directory stops dispatch after in-flight issues finish.
const StopFilename = "STOP"

// StopWatcher watches the project directory for a STOP file and
// cancels the run when one appears.
type StopWatcher struct {
	dir     string
	logger  io.Writer
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchStop starts watching dir. When a STOP file is created (or
// already exists), cancel is invoked once. Call Close to stop
// watching; the STOP file itself is removed so the next run is not
// immediately cancelled.
func WatchStop(dir string, cancel context.CancelFunc, logger io.Writer) (*StopWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &StopWatcher{dir: dir, logger: logger, watcher: fw, done: make(chan struct{})}

	// A STOP file left over from before the run counts immediately.
	stopPath := filepath.Join(dir, StopFilename)
	if _, err := os.Stat(stopPath); err == nil {
		w.trigger(cancel)
	}

	go w.loop(cancel)
	return w, nil
}

func (w *StopWatcher) loop(cancel context.CancelFunc) {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != StopFilename {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				w.trigger(cancel)
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; cancellation via signal
			// still works.
		}
	}
}

// trigger cancels the run and removes the STOP file.
func (w *StopWatcher) trigger(cancel context.CancelFunc) {
	fmt.Fprintf(w.logger, "STOP file detected: finishing in-flight issues, starting nothing new\n")
	cancel()
	if err := os.Remove(filepath.Join(w.dir, StopFilename)); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(w.logger, "warning: failed to remove STOP file: %v\n", err)
	}
}

// Close stops the watcher and waits for its loop to exit.
func (w *StopWatcher) Close() {
	w.watcher.Close()
	<-w.done
}
