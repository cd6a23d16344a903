// Package watch turns file-system activity in the notes directory into
// document-save notifications.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/notepad/internal/checksum"
	"github.com/starford/notepad/internal/storage"
)

// DefaultDebounce is how long a path must stay quiet before it is reported.
const DefaultDebounce = 150 * time.Millisecond

// SaveFunc is called with the absolute path and full text of a saved file.
type SaveFunc func(path, text string)

// Options configures Watch.
type Options struct {
	// Suffix limits notifications to files with this ending.
	Suffix string
	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration
}

// Watch starts an fsnotify watcher on dir and reports saved files until ctx
// is cancelled. Bursts of events on one path are coalesced, and a file whose
// content is unchanged since the last report is skipped.
func Watch(ctx context.Context, dir string, opts Options, logger *slog.Logger, cb SaveFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	logger.Info("watcher: started", slog.String("dir", dir))

	seen := make(map[string]string) // path → checksum last reported
	pending := make(map[string]struct{})

	var flushTimer *time.Timer
	var flushCh <-chan time.Time

	scheduleFlush := func() {
		if flushTimer == nil {
			flushTimer = time.NewTimer(debounce)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(debounce)
		}
	}

	flush := func() {
		for p := range pending {
			delete(pending, p)
			data, readErr := os.ReadFile(p)
			if readErr != nil {
				logger.Debug("watcher: read failed", slog.String("path", p), slog.String("error", readErr.Error()))
				continue
			}
			cs := checksum.Sum(data)
			if seen[p] == cs {
				continue
			}
			seen[p] = cs
			logger.Debug("watcher: saved", slog.String("path", p))
			cb(p, string(data))
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-flushCh:
			flush()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if strings.HasPrefix(name, storage.TempPrefix) || !strings.HasSuffix(name, opts.Suffix) {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				pending[ev.Name] = struct{}{}
				scheduleFlush()
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				delete(seen, ev.Name)
				delete(pending, ev.Name)
				logger.Debug("watcher: gone", slog.String("path", ev.Name))
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
