// Package watch re-reads a source on a cron schedule and reports posts that
// were not on the previous reads.
package watch

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/byteowlz/trackr/internal/logging"
	"github.com/byteowlz/trackr/pkg/trackr"
)

const DefaultSchedule = "@every 10m"

type Lister interface {
	List(ctx context.Context, name string, opts trackr.ListOptions) (*trackr.Listing, error)
}

// Notify receives a listing holding only the new entries.
type Notify func(l *trackr.Listing)

type Watcher struct {
	lister Lister
	source string
	opts   trackr.ListOptions
	notify Notify
	log    *logging.Logger

	mu   sync.Mutex
	seen map[string]bool
}

func New(lister Lister, source string, opts trackr.ListOptions, notify Notify, log *logging.Logger) *Watcher {
	if log == nil {
		log = logging.Discard()
	}
	return &Watcher{
		lister: lister,
		source: source,
		opts:   opts,
		notify: notify,
		log:    log,
		seen:   make(map[string]bool),
	}
}

// Check reads the source once and notifies about unseen entries. The first
// check reports everything on the page.
func (w *Watcher) Check(ctx context.Context) (int, error) {
	l, err := w.lister.List(ctx, w.source, w.opts)
	if err != nil {
		return 0, err
	}

	w.mu.Lock()
	fresh := make([]trackr.Entry, 0, len(l.Items))
	for _, item := range l.Items {
		if w.seen[item.URL] {
			continue
		}
		w.seen[item.URL] = true
		fresh = append(fresh, item)
	}
	w.mu.Unlock()

	if len(fresh) > 0 && w.notify != nil {
		update := *l
		update.Items = fresh
		w.notify(&update)
	}
	return len(fresh), nil
}

// Run checks immediately and then on every tick of schedule until ctx is
// cancelled. Overlapping ticks are skipped.
func (w *Watcher) Run(ctx context.Context, schedule string) error {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, func() { w.tick(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	w.tick(ctx)
	c.Start()
	w.log.Infof("watching %s (%s)", w.source, schedule)

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func (w *Watcher) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	n, err := w.Check(ctx)
	if err != nil {
		w.log.Warnf("check of %s failed: %v", w.source, err)
		return
	}
	w.log.Debugf("%s: %d new entries", w.source, n)
}
