// Package filings implements the corporate-filings provider: a JSON API
// client over a configurable filings service (disclosures, announcements,
// registration statements).
package filings

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/crosswire-labs/intelstream/internal/core/domain"
	"github.com/crosswire-labs/intelstream/internal/core/ports/driven"
	"github.com/crosswire-labs/intelstream/internal/logger"
	"github.com/crosswire-labs/intelstream/internal/providers/cachefirst"
)

// ProviderName is the stable identifier used in diagnostics.
const ProviderName = "filings"

const defaultHTTPTimeout = 15 * time.Second

// Config configures the filings provider.
type Config struct {
	// BaseURL is the filings API root.
	BaseURL string

	// APIKey is sent as X-Api-Key when set.
	APIKey string

	// CacheTTL is how long fetched results stay fresh.
	CacheTTL time.Duration

	// HTTPTimeout bounds one API call. Zero uses a default.
	HTTPTimeout time.Duration
}

// filing is the wire shape of one corporate filing.
type filing struct {
	ID        string    `json:"id"`
	Company   string    `json:"company"`
	FormType  string    `json:"form_type"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	URL       string    `json:"url"`
	Topics    []string  `json:"topics"`
	Relevance *float64  `json:"relevance,omitempty"`
	FiledAt   time.Time `json:"filed_at"`
}

// filingsResponse is the API envelope.
type filingsResponse struct {
	Filings []filing `json:"filings"`
}

// Ensure Provider implements the interface.
var _ driven.Provider = (*Provider)(nil)

// Provider fetches corporate filings from a JSON API.
type Provider struct {
	cfg    Config
	cache  driven.ItemCache
	client *http.Client

	mu     sync.Mutex
	closed bool
}

// New creates a filings provider. The cache may be nil.
func New(cfg Config, cache driven.ItemCache) *Provider {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &Provider{
		cfg:    cfg,
		cache:  cache,
		client: &http.Client{Timeout: timeout},
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return ProviderName
}

// Categories returns the categories this provider can produce.
func (p *Provider) Categories() []domain.Category {
	return []domain.Category{domain.CategoryCorporate}
}

// Close marks the provider closed and releases idle connections.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.client.CloseIdleConnections()
	return nil
}

// Fetch produces corporate-announcement items for the query, cache first.
func (p *Provider) Fetch(ctx context.Context, q domain.Query) (<-chan domain.Item, <-chan error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		items := make(chan domain.Item)
		errs := make(chan error, 1)
		errs <- domain.ErrProviderClosed
		close(items)
		close(errs)
		return items, errs
	}

	key := cachefirst.Key(ProviderName, q)
	return cachefirst.Stream(ctx, p.cache, key, p.cfg.CacheTTL, func(ctx context.Context) ([]domain.Item, error) {
		return p.fetchLive(ctx, q)
	})
}

func (p *Provider) fetchLive(ctx context.Context, q domain.Query) ([]domain.Item, error) {
	base, err := url.Parse(p.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	base = base.JoinPath("v1", "filings")

	params := url.Values{}
	if len(q.Topics) > 0 {
		params.Set("q", strings.Join(q.Topics, " "))
	}
	if !q.Timeframe.From.IsZero() {
		params.Set("filed_after", q.Timeframe.From.UTC().Format(time.RFC3339))
	}
	if !q.Timeframe.To.IsZero() {
		params.Set("filed_before", q.Timeframe.To.UTC().Format(time.RFC3339))
	}
	base.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.cfg.APIKey != "" {
		req.Header.Set("X-Api-Key", p.cfg.APIKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("filings API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, domain.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("filings API: unexpected status %d", resp.StatusCode)
	}

	var envelope filingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode filings: %w", err)
	}

	items := make([]domain.Item, 0, len(envelope.Filings))
	for _, f := range envelope.Filings {
		item, ok := mapFiling(f, q)
		if !ok {
			continue
		}
		items = append(items, item)
	}

	logger.Debug("Filings returned %d of %d matching filings", len(items), len(envelope.Filings))
	return items, nil
}

// mapFiling converts one wire filing into a domain item.
func mapFiling(f filing, q domain.Query) (domain.Item, bool) {
	if f.URL == "" {
		return domain.Item{}, false
	}
	if !f.FiledAt.IsZero() && !q.Timeframe.Contains(f.FiledAt) {
		return domain.Item{}, false
	}

	title := f.Title
	if title == "" && f.Company != "" {
		title = fmt.Sprintf("%s files %s", f.Company, f.FormType)
	}

	var entities []domain.Entity
	if f.Company != "" {
		entities = []domain.Entity{{Name: f.Company, Type: "corporation"}}
	}

	return domain.Item{
		ID:             f.ID,
		Category:       domain.CategoryCorporate,
		Title:          title,
		Summary:        f.Summary,
		SourceURL:      f.URL,
		Topics:         f.Topics,
		RelevanceScore: f.Relevance,
		PublishedAt:    f.FiledAt,
		Entities:       entities,
		Provider:       ProviderName,
	}, true
}
