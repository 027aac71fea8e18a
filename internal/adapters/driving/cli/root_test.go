package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crosswire-labs/intelstream/internal/core/domain"
	"github.com/crosswire-labs/intelstream/internal/core/services"
)

// mockProvider is a no-op provider for registry listings.
type mockProvider struct {
	name string
	cats []domain.Category
}

func (p *mockProvider) Name() string                  { return p.name }
func (p *mockProvider) Categories() []domain.Category { return p.cats }
func (p *mockProvider) Fetch(ctx context.Context, q domain.Query) (<-chan domain.Item, <-chan error) {
	items := make(chan domain.Item)
	errs := make(chan error)
	close(items)
	close(errs)
	return items, errs
}
func (p *mockProvider) Close() error { return nil }

// mockAggregator replays canned results.
type mockAggregator struct {
	items  []domain.Item
	events []domain.StreamEvent
	err    error
	lastQ  domain.Query
}

func (m *mockAggregator) Stream(ctx context.Context, q domain.Query) (<-chan domain.Item, <-chan domain.Diagnostic, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	items := make(chan domain.Item, len(m.items))
	for _, it := range m.items {
		items <- it
	}
	close(items)
	diags := make(chan domain.Diagnostic)
	close(diags)
	return items, diags, nil
}

func (m *mockAggregator) StreamEvents(ctx context.Context, q domain.Query) (<-chan domain.StreamEvent, error) {
	m.lastQ = q
	if m.err != nil {
		return nil, m.err
	}
	out := make(chan domain.StreamEvent, len(m.events))
	for _, ev := range m.events {
		out <- ev
	}
	close(out)
	return out, nil
}

func (m *mockAggregator) Gather(ctx context.Context, q domain.Query) ([]domain.Item, error) {
	m.lastQ = q
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

func relevance(score float64) *float64 { return &score }

// setupTestServices injects mocks and returns a cleanup that restores
// the package state.
func setupTestServices(agg *mockAggregator) func() {
	registry := services.NewRegistry()
	registry.Register(&mockProvider{name: "newswire", cats: []domain.Category{domain.CategoryNews}})
	registry.Register(&mockProvider{name: "capitolrecords", cats: []domain.Category{domain.CategoryLegislative, domain.CategoryNews}})

	oldAgg, oldReg, oldStore := aggregatorService, registryService, configStore
	aggregatorService = agg
	registryService = registry
	configStore = nil

	return func() {
		aggregatorService = oldAgg
		registryService = oldReg
		configStore = oldStore
	}
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "intelstream", rootCmd.Use)
}

func TestRootCmd_HasVerboseFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("verbose")
	assert.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)
}

func TestRootCmd_HasConfigFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("config")
	assert.NotNil(t, flag)
}
