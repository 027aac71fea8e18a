// Package legislative implements the legislative-record provider: a JSON
// API client over a configurable records service (bills, resolutions,
// committee actions).
package legislative

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
const ProviderName = "capitolrecords"

// defaultHTTPTimeout bounds a single records API call, not the whole
// aggregation; that budget belongs to the query.
const defaultHTTPTimeout = 15 * time.Second

// Config configures the legislative provider.
type Config struct {
	// BaseURL is the records API root, e.g. "https://records.example.gov".
	BaseURL string

	// APIKey is sent as X-Api-Key when set.
	APIKey string

	// CacheTTL is how long fetched results stay fresh.
	CacheTTL time.Duration

	// HTTPTimeout bounds one API call. Zero uses a default.
	HTTPTimeout time.Duration
}

// record is the wire shape of one legislative record.
type record struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Summary      string    `json:"summary"`
	URL          string    `json:"url"`
	Body         string    `json:"body"`
	Topics       []string  `json:"topics"`
	Relevance    *float64  `json:"relevance,omitempty"`
	IntroducedAt time.Time `json:"introduced_at"`
	Sponsors     []struct {
		Name string `json:"name"`
	} `json:"sponsors,omitempty"`
}

// recordsResponse is the API envelope.
type recordsResponse struct {
	Records []record `json:"records"`
}

// Ensure Provider implements the interface.
var _ driven.Provider = (*Provider)(nil)

// Provider fetches legislative records from a JSON API.
type Provider struct {
	cfg    Config
	cache  driven.ItemCache
	client *http.Client

	mu     sync.Mutex
	closed bool
}

// New creates a legislative provider. The cache may be nil.
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
	return []domain.Category{domain.CategoryLegislative}
}

// Close marks the provider closed and releases idle connections.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.client.CloseIdleConnections()
	return nil
}

// Fetch produces legislative-record items for the query, cache first.
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
	reqURL, err := p.queryURL(q)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.cfg.APIKey != "" {
		req.Header.Set("X-Api-Key", p.cfg.APIKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("records API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, domain.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("records API: unexpected status %d", resp.StatusCode)
	}

	var envelope recordsResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}

	items := make([]domain.Item, 0, len(envelope.Records))
	for _, rec := range envelope.Records {
		item, ok := mapRecord(rec, q)
		if !ok {
			continue
		}
		items = append(items, item)
	}

	logger.Debug("Capitol records returned %d of %d matching records", len(items), len(envelope.Records))
	return items, nil
}

// queryURL builds the records endpoint URL for the query. The timeframe is
// forwarded so the API can bound recency server-side.
func (p *Provider) queryURL(q domain.Query) (string, error) {
	base, err := url.Parse(p.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	base = base.JoinPath("v1", "records")

	params := url.Values{}
	if len(q.Topics) > 0 {
		params.Set("topics", strings.Join(q.Topics, ","))
	}
	if !q.Timeframe.From.IsZero() {
		params.Set("from", q.Timeframe.From.UTC().Format(time.RFC3339))
	}
	if !q.Timeframe.To.IsZero() {
		params.Set("to", q.Timeframe.To.UTC().Format(time.RFC3339))
	}
	base.RawQuery = params.Encode()
	return base.String(), nil
}

// mapRecord converts one wire record into a domain item. The timeframe is
// re-checked client-side; the API's interpretation is advisory.
func mapRecord(rec record, q domain.Query) (domain.Item, bool) {
	if rec.URL == "" {
		return domain.Item{}, false
	}
	if !rec.IntroducedAt.IsZero() && !q.Timeframe.Contains(rec.IntroducedAt) {
		return domain.Item{}, false
	}

	entities := make([]domain.Entity, 0, len(rec.Sponsors)+1)
	if rec.Body != "" {
		entities = append(entities, domain.Entity{Name: rec.Body, Type: "legislative body"})
	}
	for _, s := range rec.Sponsors {
		entities = append(entities, domain.Entity{Name: s.Name, Type: "person"})
	}

	return domain.Item{
		ID:             rec.ID,
		Category:       domain.CategoryLegislative,
		Title:          rec.Title,
		Summary:        rec.Summary,
		SourceURL:      rec.URL,
		Topics:         rec.Topics,
		RelevanceScore: rec.Relevance,
		PublishedAt:    rec.IntroducedAt,
		Entities:       entities,
		Provider:       ProviderName,
	}, true
}
