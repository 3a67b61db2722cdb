package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/prism-data/prism/internal/runner"
	"github.com/prism-data/prism/pkg/prism"
)

// watchDebounce batches rapid editor events into one re-validation.
const watchDebounce = 250 * time.Millisecond

// watchAndValidate validates once, then re-validates whenever a file
// under the dataset changes, until the context is cancelled. A FAIL
// verdict does not stop watching; only cancellation ends the loop.
func watchAndValidate(ctx context.Context, r *runner.Runner, datasetPath string, logger prism.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addWatchesRecursive(watcher, datasetPath); err != nil {
		return err
	}

	runOnce := func() {
		report, runErr := r.Run(ctx)
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			logger.Error("validation aborted: %v", runErr)
		}
		if report != nil {
			if renderErr := renderReport(report, r.Composition()); renderErr != nil {
				logger.Error("rendering report: %v", renderErr)
			}
		}
	}

	runOnce()
	logger.Info("watching %s for changes", datasetPath)

	var debounce *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// New directories need their own watch.
			if event.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_ = addWatchesRecursive(watcher, event.Name)
				}
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error: %v", watchErr)

		case <-pending:
			logger.Verbose("change detected, re-validating")
			runOnce()
		}
	}
}

func addWatchesRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		return watcher.Add(path)
	})
}
