package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces editor save bursts into one regeneration.
const watchDebounce = 500 * time.Millisecond

// Watch runs the batch once, then stays resident and re-runs it every
// time an SVG in the source directory changes. The freshness check
// keeps re-runs cheap: only touched sources actually regenerate.
// Blocks until ctx is cancelled.
func (b *Batch) Watch(ctx context.Context, report func(Event), onRun func(Summary, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(b.cfg.Dirs.Sources); err != nil {
		return err
	}

	onRun(b.Run(ctx, report))

	var debounce *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), ".svg") {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
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

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onRun(Summary{}, err)

		case <-pending:
			onRun(b.Run(ctx, report))
		}
	}
}
