package domain

import (
	"fmt"
	"time"
)

// Timeframe bounds item recency. Advisory: providers interpret it when
// fetching, the merge engine does not enforce it.
type Timeframe struct {
	// From is the inclusive lower bound. Zero means unbounded.
	From time.Time `json:"from,omitzero"`

	// To is the inclusive upper bound. Zero means unbounded.
	To time.Time `json:"to,omitzero"`
}

// IsZero reports whether no bounds are set.
func (t Timeframe) IsZero() bool {
	return t.From.IsZero() && t.To.IsZero()
}

// Contains reports whether ts falls within the timeframe.
// Zero bounds are open.
func (t Timeframe) Contains(ts time.Time) bool {
	if !t.From.IsZero() && ts.Before(t.From) {
		return false
	}
	if !t.To.IsZero() && ts.After(t.To) {
		return false
	}
	return true
}

// Query is the input to a single aggregation request.
// Queries are immutable value objects; one Query drives one stream call.
type Query struct {
	// Topics is the set of required topic terms.
	Topics []string `json:"topics,omitempty"`

	// TargetType optionally narrows provider selection by the kind of
	// entity under investigation ("legislative body", "corporation", ...).
	TargetType string `json:"target_type,omitempty"`

	// Category optionally restricts results to one category.
	Category Category `json:"category,omitempty"`

	// Timeframe bounds item recency. Advisory.
	Timeframe Timeframe `json:"timeframe,omitzero"`

	// MaxItems caps the total number of items returned. Zero means no cap.
	MaxItems int `json:"max_items,omitempty"`

	// Timeout bounds the wall-clock duration of the whole aggregation.
	// Zero means unbounded.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// Validate checks the query for malformed input. Validation failures are
// the only errors that fail an aggregation call as a whole.
func (q Query) Validate() error {
	if q.MaxItems < 0 {
		return fmt.Errorf("%w: max items must not be negative", ErrInvalidQuery)
	}
	if q.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalidQuery)
	}
	if q.Category != "" {
		if _, err := ParseCategory(string(q.Category)); err != nil {
			return err
		}
	}
	if !q.Timeframe.From.IsZero() && !q.Timeframe.To.IsZero() && q.Timeframe.To.Before(q.Timeframe.From) {
		return fmt.Errorf("%w: timeframe ends before it starts", ErrInvalidQuery)
	}
	return nil
}
