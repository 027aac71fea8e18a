package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosswire-labs/intelstream/internal/core/domain"
)

func scored(delay time.Duration, url string, score float64) emission {
	e := emit(delay, url)
	e.item.RelevanceScore = &score
	return e
}

// TestAggregator_Gather_NoProvidersRegistered fails fast: nothing exists to
// match against, which is different from nothing matching.
func TestAggregator_Gather_NoProvidersRegistered(t *testing.T) {
	agg := NewAggregator(NewRegistry())

	_, err := agg.Gather(context.Background(), domain.Query{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoProviders)
}

// TestAggregator_Gather_NoProvidersMatched is an empty success
func TestAggregator_Gather_NoProvidersMatched(t *testing.T) {
	r := NewRegistry()
	r.Register(catProvider("news", domain.CategoryNews))
	agg := NewAggregator(r)

	items, err := agg.Gather(context.Background(), domain.Query{TargetType: "asteroid"})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
}

// TestAggregator_Gather_InvalidQuery rejects malformed input before any
// provider is invoked
func TestAggregator_Gather_InvalidQuery(t *testing.T) {
	r := NewRegistry()
	p := newFakeProvider("p", emit(time.Millisecond, "https://example.com/x"))
	r.Register(p)
	agg := NewAggregator(r)

	_, err := agg.Gather(context.Background(), domain.Query{MaxItems: -1})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
	assert.Equal(t, 0, p.releasedCount(), "no provider may be invoked on validation failure")
}

// TestAggregator_Gather_MergesAndDedups runs the full composition
func TestAggregator_Gather_MergesAndDedups(t *testing.T) {
	r := NewRegistry()
	r.Register(newFakeProvider("a",
		emit(30*time.Millisecond, "https://example.com/shared"),
		emit(10*time.Millisecond, "https://example.com/a1"),
	))
	r.Register(newFakeProvider("b",
		emit(60*time.Millisecond, "https://example.com/shared"),
	))
	agg := NewAggregator(r)

	items, err := agg.Gather(context.Background(), domain.Query{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Provider)
}

// TestAggregator_Gather_RespectsMaxItems bounds the result
func TestAggregator_Gather_RespectsMaxItems(t *testing.T) {
	r := NewRegistry()
	r.Register(newFakeProvider("p",
		emit(5*time.Millisecond, "https://example.com/1"),
		emit(5*time.Millisecond, "https://example.com/2"),
		emit(5*time.Millisecond, "https://example.com/3"),
	))
	agg := NewAggregator(r)

	items, err := agg.Gather(context.Background(), domain.Query{MaxItems: 2})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

// TestAggregator_StreamEvents_Shape checks item events, error events and the
// terminal complete event
func TestAggregator_StreamEvents_Shape(t *testing.T) {
	r := NewRegistry()
	r.Register(newFakeProvider("good",
		emit(10*time.Millisecond, "https://example.com/1"),
		emit(10*time.Millisecond, "https://example.com/2"),
	))
	r.Register(newFakeProvider("bad", fail(5*time.Millisecond, "dns failure")))
	agg := NewAggregator(r)

	events, err := agg.StreamEvents(context.Background(), domain.Query{})
	require.NoError(t, err)

	var itemCount, errorCount int
	var complete *domain.StreamEvent
	for ev := range events {
		switch ev.Type {
		case domain.EventItem:
			itemCount++
			assert.Nil(t, complete, "no events after complete")
		case domain.EventError:
			errorCount++
			assert.Equal(t, "bad", ev.Provider)
			assert.Equal(t, "dns failure", ev.Message)
		case domain.EventComplete:
			ev := ev
			complete = &ev
		}
	}

	assert.Equal(t, 2, itemCount)
	assert.Equal(t, 1, errorCount)
	require.NotNil(t, complete, "event streams always terminate with a complete event")
	assert.Equal(t, 2, complete.TotalYielded)
	assert.GreaterOrEqual(t, complete.ElapsedMs, int64(0))
}

// TestAggregator_StreamEvents_TimeoutStillCompletes ends a timed-out run with
// a complete event rather than hanging
func TestAggregator_StreamEvents_TimeoutStillCompletes(t *testing.T) {
	r := NewRegistry()
	r.Register(newFakeProvider("stuck", emit(10*time.Second, "https://example.com/never")))
	agg := NewAggregator(r)

	events, err := agg.StreamEvents(context.Background(), domain.Query{Timeout: 100 * time.Millisecond})
	require.NoError(t, err)

	var last domain.StreamEvent
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				require.Equal(t, domain.EventComplete, last.Type)
				assert.Equal(t, 0, last.TotalYielded)
				return
			}
			last = ev
		case <-deadline:
			t.Fatal("timed-out run did not complete")
		}
	}
}

// TestAggregator_MinRelevanceFilter applies the threshold at the boundary;
// unscored items always pass.
func TestAggregator_MinRelevanceFilter(t *testing.T) {
	r := NewRegistry()
	r.Register(newFakeProvider("p",
		scored(5*time.Millisecond, "https://example.com/low", 0.2),
		scored(5*time.Millisecond, "https://example.com/high", 0.9),
		emit(5*time.Millisecond, "https://example.com/unscored"),
	))
	agg := NewAggregator(r)
	agg.SetMinRelevance(0.5)

	items, err := agg.Gather(context.Background(), domain.Query{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "https://example.com/high", items[0].SourceURL)
	assert.Equal(t, "https://example.com/unscored", items[1].SourceURL)
}

// TestAggregator_Stream_CancellationClosesSlots verifies the raw entry point
// honours caller cancellation
func TestAggregator_Stream_CancellationClosesSlots(t *testing.T) {
	r := NewRegistry()
	p := newFakeProvider("p",
		emit(10*time.Millisecond, "https://example.com/1"),
		emit(10*time.Second, "https://example.com/2"),
	)
	r.Register(p)
	agg := NewAggregator(r)

	ctx, cancel := context.WithCancel(context.Background())
	items, _, err := agg.Stream(ctx, domain.Query{})
	require.NoError(t, err)

	<-items
	cancel()

	require.Eventually(t, func() bool {
		return p.releasedCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}
