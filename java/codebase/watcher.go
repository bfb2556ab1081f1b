package codebase

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

const defaultDebounce = 200 * time.Millisecond

// Watcher rescans the files of a codebase when they change on disk. Events
// are collected until the tree has been quiet for the debounce interval.
// fsnotify watches the operating system, so the codebase must be backed by
// the OS filesystem for events to arrive.
type Watcher struct {
	codebase *Codebase
	debounce time.Duration
}

func NewWatcher(c *Codebase, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{codebase: c, debounce: debounce}
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Errorf("start watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.codebase.RootDir()); err != nil {
		return err
	}

	pending := map[string]bool{}
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if isDir, _ := afero.IsDir(w.codebase.Fs(), ev.Name); isDir {
					if err := w.addTree(fw, ev.Name); err != nil {
						log.Warning(err.Error())
					}
					continue
				}
			}
			if !w.codebase.Matches(ev.Name) {
				continue
			}
			pending[ev.Name] = true
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warningf("watch: %s", err)

		case <-timer.C:
			w.flush(pending)
			pending = map[string]bool{}
		}
	}
}

// addTree watches dir and the directories below it, except hidden ones.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return afero.Walk(w.codebase.Fs(), dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return errors.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// flush brings the codebase in line with the disk for each path.
func (w *Watcher) flush(paths map[string]bool) {
	for path := range paths {
		exists, err := afero.Exists(w.codebase.Fs(), path)
		switch {
		case err != nil:
			log.Warningf("stat %s: %s", path, err)
		case !exists:
			w.codebase.RemoveFile(path)
		default:
			if err := w.codebase.ScanFile(path); err != nil {
				log.Warning(err.Error())
			}
		}
	}
}
