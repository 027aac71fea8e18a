package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosswire-labs/intelstream/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleItems() []domain.Item {
	score := 0.7
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	return []domain.Item{
		{
			ID:             "hr-1",
			Category:       domain.CategoryLegislative,
			Title:          "Data Privacy Act",
			Summary:        "A bill.",
			SourceURL:      "https://records.example.gov/hr-1",
			Topics:         []string{"privacy"},
			RelevanceScore: &score,
			PublishedAt:    time.Now().UTC().Truncate(time.Second),
			ExpiresAt:      &expires,
			Entities:       []domain.Entity{{Name: "US House", Type: "legislative body"}},
			Provider:       "capitolrecords",
		},
		{
			ID:        "hr-2",
			Category:  domain.CategoryLegislative,
			Title:     "Appropriations",
			SourceURL: "https://records.example.gov/hr-2",
			Provider:  "capitolrecords",
		},
	}
}

// TestStore_PutGetRoundTrip persists a full result set and reads it back
// in order with all fields intact
func TestStore_PutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", sampleItems(), time.Minute))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "hr-1", got[0].ID)
	assert.Equal(t, "hr-2", got[1].ID)
	assert.Equal(t, []string{"privacy"}, got[0].Topics)
	require.NotNil(t, got[0].RelevanceScore)
	assert.InDelta(t, 0.7, *got[0].RelevanceScore, 0.001)
	require.Len(t, got[0].Entities, 1)
	assert.Equal(t, "US House", got[0].Entities[0].Name)
}

// TestStore_MissOnUnknownKey returns the sentinel
func TestStore_MissOnUnknownKey(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

// TestStore_ExpiredEntryIsMiss treats past-TTL rows as absent
func TestStore_ExpiredEntryIsMiss(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", sampleItems(), time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

// TestStore_PutReplacesEntry overwrites atomically
func TestStore_PutReplacesEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", sampleItems(), time.Minute))
	require.NoError(t, s.Put(ctx, "k", sampleItems()[:1], time.Minute))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

// TestStore_KeysAreIsolated keeps entries independent
func TestStore_KeysAreIsolated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a", sampleItems()[:1], time.Minute))
	require.NoError(t, s.Put(ctx, "b", sampleItems(), time.Minute))

	gotA, err := s.Get(ctx, "a")
	require.NoError(t, err)
	gotB, err := s.Get(ctx, "b")
	require.NoError(t, err)

	assert.Len(t, gotA, 1)
	assert.Len(t, gotB, 2)
}

// TestStore_Prune reclaims expired rows
func TestStore_Prune(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "stale", sampleItems(), time.Millisecond))
	require.NoError(t, s.Put(ctx, "fresh", sampleItems(), time.Hour))
	time.Sleep(20 * time.Millisecond)

	pruned, err := s.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pruned)

	_, err = s.Get(ctx, "fresh")
	assert.NoError(t, err)
}

// TestStore_ReopenPersists survives a close/reopen cycle
func TestStore_ReopenPersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "k", sampleItems(), time.Hour))
	require.NoError(t, s.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
