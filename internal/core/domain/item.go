package domain

import (
	"fmt"
	"time"
)

// Category classifies an intelligence item. The set is closed: providers
// declare which categories they can produce and queries may filter on one.
type Category string

// Known categories.
const (
	CategoryNews        Category = "news"
	CategoryLegislative Category = "legislative-record"
	CategoryCorporate   Category = "corporate-announcement"
	CategorySocial      Category = "social"
)

// AllCategories lists every valid category.
func AllCategories() []Category {
	return []Category{CategoryNews, CategoryLegislative, CategoryCorporate, CategorySocial}
}

// ParseCategory validates a category string.
func ParseCategory(s string) (Category, error) {
	for _, c := range AllCategories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrInvalidQuery, s)
}

// Entity is a named-entity mention attached to an item.
// Order within an item is meaningful and preserved.
type Entity struct {
	// Name is the surface form of the mention.
	Name string `json:"name"`

	// Type is a coarse entity class ("person", "corporation", "legislative body").
	Type string `json:"type,omitempty"`
}

// Item represents a single piece of intelligence flowing through the engine.
// Items are immutable value objects created per aggregation call.
type Item struct {
	// ID is an opaque identifier, unique within the producing provider.
	ID string `json:"id"`

	// Category is the item's classification.
	Category Category `json:"category"`

	// Title is the human-readable headline.
	Title string `json:"title"`

	// Summary is short display text.
	Summary string `json:"summary,omitempty"`

	// SourceURL is the deduplication key. Two items with the same URL are
	// the same fact reported by two sources; only the first arrival is kept.
	SourceURL string `json:"source_url"`

	// Topics is the set of topic tags. Membership only, order irrelevant.
	Topics []string `json:"topics,omitempty"`

	// RelevanceScore is a pre-computed score in [0,1], set by the provider.
	// Nil when the provider does not score.
	RelevanceScore *float64 `json:"relevance_score,omitempty"`

	// PublishedAt is when the underlying fact was published.
	PublishedAt time.Time `json:"published_at"`

	// ExpiresAt marks cache staleness. Consumed by cache collaborators only;
	// the merge engine never reads it.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	// Entities is the ordered sequence of named-entity mentions.
	Entities []Entity `json:"entities,omitempty"`

	// Provider is the name of the provider that produced this copy.
	// Diagnostic only; not part of item identity.
	Provider string `json:"provider,omitempty"`
}

// Valid reports whether the item satisfies the engine's invariants.
// SourceURL is required because it is the dedup key.
func (i Item) Valid() error {
	if i.SourceURL == "" {
		return fmt.Errorf("%w: item %q has no source URL", ErrInvalidItem, i.ID)
	}
	if i.Category != "" {
		if _, err := ParseCategory(string(i.Category)); err != nil {
			return err
		}
	}
	return nil
}

// HasTopic reports whether the item carries the given topic tag.
func (i Item) HasTopic(topic string) bool {
	for _, t := range i.Topics {
		if t == topic {
			return true
		}
	}
	return false
}
