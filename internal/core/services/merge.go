package services

import (
	"context"
	"sync"
	"time"

	"github.com/crosswire-labs/intelstream/internal/core/domain"
	"github.com/crosswire-labs/intelstream/internal/core/ports/driven"
	"github.com/crosswire-labs/intelstream/internal/logger"
)

// Source is one named lazy item sequence feeding a merge. Open is invoked
// with the merge-owned context, so cancelling the run (timeout, item cap,
// caller ceasing consumption) propagates to the underlying sequence and
// gives it the chance to release its resources. Name is carried through to
// diagnostics.
type Source struct {
	Name string
	Open func(ctx context.Context) (<-chan domain.Item, <-chan error)
}

// ProviderSource adapts a provider's Fetch for the given query into a
// merge Source.
func ProviderSource(p driven.Provider, q domain.Query) Source {
	return Source{
		Name: p.Name(),
		Open: func(ctx context.Context) (<-chan domain.Item, <-chan error) {
			return p.Fetch(ctx, q)
		},
	}
}

// MergeOptions bound a single merge run.
type MergeOptions struct {
	// MaxItems caps the number of yielded items. Zero means no cap.
	MaxItems int

	// Timeout bounds the whole run, not any individual source.
	// Zero means unbounded.
	Timeout time.Duration
}

// arrival is one resolved slot: either an item or a source failure.
type arrival struct {
	source string
	item   domain.Item
	err    error
}

// Merge concurrently drains the given sources and produces one combined
// sequence in first-available order, deduplicated by source URL.
//
// One forwarder goroutine per source multiplexes onto a shared arrivals
// channel. Each source holds at most one pending value, and the collector
// resumes as soon as whichever source resolves first. A failing source is
// converted to a diagnostic and dropped; the merge continues. The run
// terminates when every source is exhausted, the timeout elapses, or
// MaxItems is reached, whichever comes first. On early termination the
// derived context is cancelled so every source still holding an open slot
// releases its resources instead of being abandoned.
//
// Within one source, emission order is preserved. Across sources there is
// no ordering guarantee: arrival order depends on source latency.
//
// The diagnostics channel is buffered to len(sources), one terminal error
// per source, so callers that only consume items never stall the merge.
// Both returned channels are closed when the run terminates.
func Merge(ctx context.Context, sources []Source, opts MergeOptions) (<-chan domain.Item, <-chan domain.Diagnostic) {
	out := make(chan domain.Item)
	diags := make(chan domain.Diagnostic, len(sources))

	mctx, cancel := context.WithCancel(ctx)
	if opts.Timeout > 0 {
		mctx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}

	arrivals := make(chan arrival)

	var wg sync.WaitGroup
	for _, src := range sources {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()
			forward(mctx, src, arrivals)
		}(src)
	}

	// Close arrivals once every forwarder has drained or been cancelled.
	go func() {
		wg.Wait()
		close(arrivals)
	}()

	go collect(mctx, cancel, arrivals, out, diags, opts.MaxItems)

	return out, diags
}

// forward opens one source and pumps it into the shared arrivals channel,
// preserving the source's own emission order. It exits when the source
// closes both channels or the merge context is cancelled.
func forward(ctx context.Context, src Source, arrivals chan<- arrival) {
	items, errs := src.Open(ctx)

	for items != nil || errs != nil {
		select {
		case <-ctx.Done():
			return

		case item, ok := <-items:
			if !ok {
				items = nil
				continue
			}
			select {
			case arrivals <- arrival{source: src.Name, item: item}:
			case <-ctx.Done():
				return
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err == nil {
				continue
			}
			select {
			case arrivals <- arrival{source: src.Name, err: err}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// collect owns the per-call state: the seen-URL set and the yield count.
// Both are created here and discarded when the run ends; nothing is shared
// across calls, and no locking is needed because mutation happens only on
// this goroutine.
func collect(
	ctx context.Context,
	cancel context.CancelFunc,
	arrivals <-chan arrival,
	out chan<- domain.Item,
	diags chan<- domain.Diagnostic,
	maxItems int,
) {
	defer close(out)
	defer close(diags)
	defer cancel()

	seen := make(map[string]struct{})
	yielded := 0

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Merge terminated early: %v (%d items yielded)", ctx.Err(), yielded)
			return

		case a, ok := <-arrivals:
			if !ok {
				logger.Debug("Merge complete: all sources exhausted (%d items yielded)", yielded)
				return
			}

			if a.err != nil {
				logger.Warn("Provider %q failed: %v", a.source, a.err)
				diags <- domain.Diagnostic{Provider: a.source, Err: a.err}
				continue
			}

			item := a.item
			if item.SourceURL == "" {
				logger.Debug("Dropping item %q from %q: no source URL", item.ID, a.source)
				continue
			}
			if _, dup := seen[item.SourceURL]; dup {
				logger.Debug("Duplicate %s from %q suppressed", item.SourceURL, a.source)
				continue
			}
			seen[item.SourceURL] = struct{}{}

			if item.Provider == "" {
				item.Provider = a.source
			}

			select {
			case out <- item:
			case <-ctx.Done():
				return
			}

			yielded++
			if maxItems > 0 && yielded >= maxItems {
				logger.Debug("Merge reached item cap (%d)", maxItems)
				return
			}
		}
	}
}
