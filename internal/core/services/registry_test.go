package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosswire-labs/intelstream/internal/core/domain"
)

func catProvider(name string, cats ...domain.Category) *fakeProvider {
	p := newFakeProvider(name)
	p.cats = cats
	return p
}

// TestRegistry_RegisterAndGet tests basic registration
func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	require.Equal(t, 0, r.Len())

	r.Register(catProvider("newswire", domain.CategoryNews))

	p, ok := r.Get("newswire")
	require.True(t, ok)
	assert.Equal(t, "newswire", p.Name())
	assert.Equal(t, 1, r.Len())
}

// TestRegistry_ReRegisterReplacesInPlace tests that re-registering a name
// replaces the provider without losing its registration-order slot
func TestRegistry_ReRegisterReplacesInPlace(t *testing.T) {
	r := NewRegistry()
	r.Register(catProvider("a", domain.CategoryNews))
	r.Register(catProvider("b", domain.CategoryNews))
	r.Register(catProvider("a", domain.CategorySocial)) // replacement

	assert.Equal(t, 2, r.Len())

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name())
	assert.Equal(t, "b", list[1].Name())
	assert.Equal(t, []domain.Category{domain.CategorySocial}, list[0].Categories())
}

// TestRegistry_Unregister tests removal and that unknown names are ignored
func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry()
	r.Register(catProvider("a", domain.CategoryNews))
	r.Register(catProvider("b", domain.CategoryNews))

	r.Unregister("a")
	r.Unregister("missing") // no-op

	assert.Equal(t, 1, r.Len())
	_, ok := r.Get("a")
	assert.False(t, ok)

	list := r.List()
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].Name())
}

// TestRegistry_SelectAll tests that an unfiltered query matches everything
func TestRegistry_SelectAll(t *testing.T) {
	r := NewRegistry()
	r.Register(catProvider("news", domain.CategoryNews))
	r.Register(catProvider("congress", domain.CategoryLegislative))

	selected := r.Select(domain.Query{})
	require.Len(t, selected, 2)
	assert.Equal(t, "news", selected[0].Name(), "selection preserves registration order")
	assert.Equal(t, "congress", selected[1].Name())
}

// TestRegistry_SelectByCategory tests the explicit category filter
func TestRegistry_SelectByCategory(t *testing.T) {
	r := NewRegistry()
	r.Register(catProvider("news", domain.CategoryNews))
	r.Register(catProvider("congress", domain.CategoryLegislative))
	r.Register(catProvider("edgar", domain.CategoryCorporate))

	selected := r.Select(domain.Query{Category: domain.CategoryLegislative})
	require.Len(t, selected, 1)
	assert.Equal(t, "congress", selected[0].Name())
}

// TestRegistry_SelectByTargetType tests target-type capability matching
func TestRegistry_SelectByTargetType(t *testing.T) {
	r := NewRegistry()
	r.Register(catProvider("news", domain.CategoryNews))
	r.Register(catProvider("congress", domain.CategoryLegislative))
	r.Register(catProvider("edgar", domain.CategoryCorporate))

	selected := r.Select(domain.Query{TargetType: "corporation"})
	require.Len(t, selected, 2)
	assert.Equal(t, "news", selected[0].Name())
	assert.Equal(t, "edgar", selected[1].Name())
}

// TestRegistry_SelectUnknownTargetType matches nothing
func TestRegistry_SelectUnknownTargetType(t *testing.T) {
	r := NewRegistry()
	r.Register(catProvider("news", domain.CategoryNews))

	selected := r.Select(domain.Query{TargetType: "asteroid"})
	assert.Empty(t, selected)
}

// TestRegistry_SelectCombinedFilters requires both filters to match
func TestRegistry_SelectCombinedFilters(t *testing.T) {
	r := NewRegistry()
	r.Register(catProvider("news", domain.CategoryNews))
	r.Register(catProvider("edgar", domain.CategoryCorporate))

	selected := r.Select(domain.Query{TargetType: "corporation", Category: domain.CategoryCorporate})
	require.Len(t, selected, 1)
	assert.Equal(t, "edgar", selected[0].Name())
}
