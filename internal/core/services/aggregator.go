package services

import (
	"context"
	"time"

	"github.com/crosswire-labs/intelstream/internal/core/domain"
	"github.com/crosswire-labs/intelstream/internal/core/ports/driving"
	"github.com/crosswire-labs/intelstream/internal/logger"
)

// Ensure Aggregator implements the interface.
var _ driving.Aggregator = (*Aggregator)(nil)

// Aggregator composes the provider registry and the merge engine behind
// the three public entry points. It holds no per-call state; everything
// transient lives inside one merge run.
type Aggregator struct {
	registry driving.Registry

	// minRelevance discards items scoring below the threshold. Applied at
	// this boundary, never inside the merge: the engine stays
	// relevance-agnostic and unscored items always pass.
	minRelevance float64
}

// NewAggregator creates an aggregator over the given registry.
func NewAggregator(registry driving.Registry) *Aggregator {
	return &Aggregator{registry: registry}
}

// SetMinRelevance enables the optional relevance post-filter.
// A threshold of zero disables it.
func (a *Aggregator) SetMinRelevance(threshold float64) {
	a.minRelevance = threshold
}

// Stream runs one aggregation and returns the raw deduplicated item
// sequence plus per-provider diagnostics.
//
// Validation policy: a registry with no providers at all is a call-level
// error, there is nothing to match against. Providers existing but none
// matching the query's filters is an empty successful stream. The two are
// semantically different and both covered by tests.
func (a *Aggregator) Stream(ctx context.Context, q domain.Query) (<-chan domain.Item, <-chan domain.Diagnostic, error) {
	if err := q.Validate(); err != nil {
		return nil, nil, err
	}
	if a.registry.Len() == 0 {
		return nil, nil, domain.ErrNoProviders
	}

	providers := a.registry.Select(q)
	logger.Section("Aggregation")
	logger.Debug("Query topics=%v category=%q target=%q -> %d of %d providers selected",
		q.Topics, q.Category, q.TargetType, len(providers), a.registry.Len())

	sources := make([]Source, 0, len(providers))
	for _, p := range providers {
		sources = append(sources, ProviderSource(p, q))
	}

	items, diags := Merge(ctx, sources, MergeOptions{
		MaxItems: q.MaxItems,
		Timeout:  q.Timeout,
	})

	if a.minRelevance > 0 {
		items = a.filterRelevance(ctx, items)
	}

	return items, diags, nil
}

// filterRelevance drops scored items below the threshold. Unscored items
// pass: absence of a score is not evidence of irrelevance.
func (a *Aggregator) filterRelevance(ctx context.Context, in <-chan domain.Item) <-chan domain.Item {
	out := make(chan domain.Item)
	go func() {
		defer close(out)
		for item := range in {
			if item.RelevanceScore != nil && *item.RelevanceScore < a.minRelevance {
				logger.Debug("Relevance filter dropped %s (%.2f < %.2f)",
					item.SourceURL, *item.RelevanceScore, a.minRelevance)
				continue
			}
			select {
			case out <- item:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// StreamEvents wraps Stream in wire-shaped events. The terminal complete
// event is always emitted: a timed-out run is a normal termination that
// happens to carry less data.
func (a *Aggregator) StreamEvents(ctx context.Context, q domain.Query) (<-chan domain.StreamEvent, error) {
	items, diags, err := a.Stream(ctx, q)
	if err != nil {
		return nil, err
	}

	events := make(chan domain.StreamEvent)
	start := time.Now()

	// send delivers an event unless the caller has gone away entirely.
	send := func(ev domain.StreamEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	go func() {
		defer close(events)

		total := 0
		for items != nil || diags != nil {
			select {
			case item, ok := <-items:
				if !ok {
					items = nil
					continue
				}
				if !send(domain.ItemEvent(item)) {
					return
				}
				total++

			case d, ok := <-diags:
				if !ok {
					diags = nil
					continue
				}
				if !send(domain.ErrorEvent(d.Provider, d.Err)) {
					return
				}
			}
		}

		send(domain.CompleteEvent(total, time.Since(start).Milliseconds()))
	}()

	return events, nil
}

// Gather drains Stream into an ordered slice, bounded by q.MaxItems.
// Provider failures degrade the result, they never fail the call.
func (a *Aggregator) Gather(ctx context.Context, q domain.Query) ([]domain.Item, error) {
	items, diags, err := a.Stream(ctx, q)
	if err != nil {
		return nil, err
	}

	// Drain diagnostics so a caller ignoring them never stalls the run.
	go func() {
		for d := range diags {
			logger.Info("Provider %q degraded: %v", d.Provider, d.Err)
		}
	}()

	out := []domain.Item{}
	for item := range items {
		out = append(out, item)
	}
	return out, nil
}
