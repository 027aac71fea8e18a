// Package news implements the news provider: it aggregates configured
// RSS/Atom feeds into news-category items, scoring each against the
// query's topics.
package news

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"github.com/crosswire-labs/intelstream/internal/core/domain"
	"github.com/crosswire-labs/intelstream/internal/core/ports/driven"
	"github.com/crosswire-labs/intelstream/internal/logger"
	"github.com/crosswire-labs/intelstream/internal/providers/cachefirst"
)

// ProviderName is the stable identifier used in diagnostics.
const ProviderName = "newswire"

// defaultRate is the polite per-provider request rate against feed hosts.
const defaultRate = 2.0

// Config configures the news provider.
type Config struct {
	// Feeds is the list of RSS/Atom feed URLs to aggregate.
	Feeds []string

	// CacheTTL is how long fetched results stay fresh. Zero disables
	// write-back expiry.
	CacheTTL time.Duration

	// RequestsPerSecond throttles feed requests. Zero uses a default.
	RequestsPerSecond float64
}

// Ensure Provider implements the interface.
var _ driven.Provider = (*Provider)(nil)

// Provider fetches news items from RSS/Atom feeds.
type Provider struct {
	cfg     Config
	cache   driven.ItemCache
	parser  *gofeed.Parser
	limiter *rate.Limiter

	mu     sync.Mutex
	closed bool
}

// New creates a news provider. The cache may be nil, in which case every
// query fetches live.
func New(cfg Config, cache driven.ItemCache) *Provider {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRate
	}
	return &Provider{
		cfg:     cfg,
		cache:   cache,
		parser:  gofeed.NewParser(),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return ProviderName
}

// Categories returns the categories this provider can produce.
func (p *Provider) Categories() []domain.Category {
	return []domain.Category{domain.CategoryNews}
}

// Close marks the provider closed. Subsequent fetches fail.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Fetch produces news items for the query, serving from the cache first
// and falling through to the configured feeds on a miss.
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

// fetchLive pulls every configured feed, maps entries to items and filters
// them against the query. A single broken feed degrades the result; only
// all feeds failing is an error.
func (p *Provider) fetchLive(ctx context.Context, q domain.Query) ([]domain.Item, error) {
	if len(p.cfg.Feeds) == 0 {
		return nil, nil
	}

	var (
		items    []domain.Item
		failures []string
	)
	for _, feedURL := range p.cfg.Feeds {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		feed, err := p.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			logger.Warn("Feed %s failed: %v", feedURL, err)
			failures = append(failures, feedURL)
			continue
		}

		for _, entry := range feed.Items {
			item, ok := p.mapEntry(feed, entry, q)
			if !ok {
				continue
			}
			items = append(items, item)
		}
	}

	if len(failures) == len(p.cfg.Feeds) {
		return nil, fmt.Errorf("all %d feeds failed (%s)", len(failures), strings.Join(failures, ", "))
	}

	logger.Debug("Newswire fetched %d matching items from %d feeds", len(items), len(p.cfg.Feeds)-len(failures))
	return items, nil
}

// mapEntry converts one feed entry into a domain item, applying the topic
// and timeframe filters. Returns false when the entry does not match.
func (p *Provider) mapEntry(feed *gofeed.Feed, entry *gofeed.Item, q domain.Query) (domain.Item, bool) {
	if entry.Link == "" {
		return domain.Item{}, false
	}

	published := time.Now()
	if entry.PublishedParsed != nil {
		published = *entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		published = *entry.UpdatedParsed
	}
	if !q.Timeframe.Contains(published) {
		return domain.Item{}, false
	}

	matched, score := scoreTopics(q.Topics, entry.Title, entry.Description, entry.Categories)
	if len(q.Topics) > 0 && len(matched) == 0 {
		return domain.Item{}, false
	}

	id := entry.GUID
	if id == "" {
		id = uuid.NewString()
	}

	item := domain.Item{
		ID:          id,
		Category:    domain.CategoryNews,
		Title:       entry.Title,
		Summary:     entry.Description,
		SourceURL:   entry.Link,
		Topics:      matched,
		PublishedAt: published,
		Provider:    ProviderName,
	}
	if len(q.Topics) > 0 {
		item.RelevanceScore = &score
	}
	if feed.Title != "" {
		item.Entities = []domain.Entity{{Name: feed.Title, Type: "publication"}}
	}
	return item, true
}

// scoreTopics returns the query topics present in the entry text plus the
// matched fraction, the provider's pre-computed relevance score.
func scoreTopics(topics []string, title, description string, tags []string) ([]string, float64) {
	if len(topics) == 0 {
		return nil, 0
	}

	haystack := strings.ToLower(title + " " + description + " " + strings.Join(tags, " "))

	var matched []string
	for _, topic := range topics {
		if strings.Contains(haystack, strings.ToLower(topic)) {
			matched = append(matched, topic)
		}
	}
	return matched, float64(len(matched)) / float64(len(topics))
}
