package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/ansuz/internal/storage"
)

// EventCallback is called after a watcher-driven index change.
// kind is "updated" or "deleted".
type EventCallback func(kind string, path string)

// LinkRegistry records note ids in the external link registry. The
// watcher keeps it in sync with index mutations; a nil registry is
// skipped.
type LinkRegistry interface {
	Add(id string) error
	Remove(id string) error
}

// Watch observes the note directory and feeds debounced change batches
// into the index until ctx is cancelled.
//
// Raw events accumulate into a pending set; the first event of a burst
// arms a fixed quiescence window, and when it elapses the whole batch is
// handed over a bounded channel to a consumer goroutine. Empty batches
// are never emitted. fsnotify keeps the blocking OS watch calls on its
// own thread, so this loop never stalls the scheduler.
//
// The underlying events do not reliably distinguish create, modify, and
// delete on every platform, so the consumer re-checks existence per path
// instead of trusting the event kind: a path that still exists is
// re-indexed, a missing one is removed. Only valid note file names pass
// the filter.
func Watch(ctx context.Context, idx *Index, reg LinkRegistry, noteDir string, debounce time.Duration, logger *slog.Logger, cb EventCallback) error {
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(noteDir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("dir", noteDir))

	batches := make(chan []string, 64)
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		for batch := range batches {
			for _, path := range batch {
				reconcile(ctx, idx, reg, path, logger, cb)
			}
		}
	}()

	pending := make(map[string]struct{})
	var window *time.Timer
	var windowC <-chan time.Time

	flush := func() {
		batch := make([]string, 0, len(pending))
		for p := range pending {
			batch = append(batch, p)
		}
		pending = make(map[string]struct{})
		windowC = nil
		select {
		case batches <- batch:
		case <-ctx.Done():
		}
	}

	for {
		select {
		case <-ctx.Done():
			if window != nil {
				window.Stop()
			}
			close(batches)
			<-consumerDone
			logger.Info("watcher: stopped")
			return nil

		case <-windowC:
			flush()

		case ev, ok := <-w.Events:
			if !ok {
				close(batches)
				<-consumerDone
				return nil
			}
			if !storage.IsNoteName(filepath.Base(ev.Name)) {
				continue
			}
			pending[ev.Name] = struct{}{}
			// Fixed window: armed by the first event of a burst, never
			// reset, so a batch always eventually goes out.
			if windowC == nil {
				window = time.NewTimer(debounce)
				windowC = window.C
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				close(batches)
				<-consumerDone
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile applies one changed path to the index and the link registry
// based on its current existence on disk.
func reconcile(ctx context.Context, idx *Index, reg LinkRegistry, absPath string, logger *slog.Logger, cb EventCallback) {
	rel := filepath.Base(absPath)
	id := storage.IDFromPath(rel)

	if _, statErr := os.Stat(absPath); statErr == nil {
		if err := idx.UpdateFile(ctx, rel); err != nil {
			logger.Warn("watcher: update failed", slog.String("path", rel), slog.String("error", err.Error()))
			return
		}
		if reg != nil {
			if err := reg.Add(id); err != nil {
				logger.Warn("watcher: registry add failed", slog.String("id", id), slog.String("error", err.Error()))
			}
		}
		logger.Debug("watcher: indexed", slog.String("path", rel))
		if cb != nil {
			cb("updated", rel)
		}
		return
	}

	idx.RemoveByPath(rel)
	if reg != nil {
		if err := reg.Remove(id); err != nil {
			logger.Warn("watcher: registry remove failed", slog.String("id", id), slog.String("error", err.Error()))
		}
	}
	logger.Debug("watcher: removed", slog.String("path", rel))
	if cb != nil {
		cb("deleted", rel)
	}
}
