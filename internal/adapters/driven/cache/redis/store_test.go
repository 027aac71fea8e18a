package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosswire-labs/intelstream/internal/core/domain"
)

// TestEncodeDecodeRoundTrip keeps every field through the wire payload
func TestEncodeDecodeRoundTrip(t *testing.T) {
	score := 0.42
	items := []domain.Item{
		{
			ID:             "n-1",
			Category:       domain.CategoryNews,
			Title:          "Merger announced",
			Summary:        "Two firms combine.",
			SourceURL:      "https://news.example.com/merger",
			Topics:         []string{"merger", "antitrust"},
			RelevanceScore: &score,
			PublishedAt:    time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
			Entities:       []domain.Entity{{Name: "Acme Corp", Type: "corporation"}},
			Provider:       "newswire",
		},
		{ID: "n-2", Category: domain.CategoryNews, SourceURL: "https://news.example.com/2"},
	}

	payload, err := encodeItems(items)
	require.NoError(t, err)

	got, err := decodeItems(payload)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, items[0].ID, got[0].ID)
	assert.Equal(t, items[0].Topics, got[0].Topics)
	require.NotNil(t, got[0].RelevanceScore)
	assert.InDelta(t, 0.42, *got[0].RelevanceScore, 0.001)
	assert.Equal(t, items[0].PublishedAt, got[0].PublishedAt)
	assert.Equal(t, items[0].Entities, got[0].Entities)
	assert.Nil(t, got[1].RelevanceScore)
}

// TestDecodeRejectsCorruptPayload surfaces an error on bad bytes
func TestDecodeRejectsCorruptPayload(t *testing.T) {
	_, err := decodeItems([]byte("{not json"))
	assert.Error(t, err)
}

// TestEncodeEmptySet stays decodable
func TestEncodeEmptySet(t *testing.T) {
	payload, err := encodeItems([]domain.Item{})
	require.NoError(t, err)

	got, err := decodeItems(payload)
	require.NoError(t, err)
	assert.Empty(t, got)
}
