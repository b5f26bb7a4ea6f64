package shipper

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher reports changes to the log files under a directory tree using
// OS-level notifications. Directories created later are watched as they
// appear.
type Watcher struct {
	fsw  *fsnotify.Watcher
	root string
}

// NewWatcher watches dir and every directory below it.
func NewWatcher(dir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{fsw: fsw, root: dir}
	if err := w.addTree(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("cannot watch %s: %w", path, err)
		}
		return nil
	})
}

// Run calls onChange for every write to or creation of a log file, and for
// every new directory, until ctx is canceled. The watcher is closed on
// return.
func (w *Watcher) Run(ctx context.Context, onChange func(path string)) {
	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						log.Warn().Err(err).Str("dir", ev.Name).Msg("Failed to watch new directory")
					}
					// files may have been written before the watch was added
					onChange(ev.Name)
					continue
				}
			}
			if (ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) && IsLogFile(ev.Name) {
				log.Trace().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("Log file changed")
				onChange(ev.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Str("dir", w.root).Msg("File watcher error")
		}
	}
}

// Close stops a watcher that was never run.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
