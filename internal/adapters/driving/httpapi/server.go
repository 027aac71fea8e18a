// Package httpapi exposes the aggregation engine over HTTP. The stream
// endpoint pushes one server-sent event per StreamEvent, so browser and
// CLI clients see items as they arrive rather than after the run ends.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crosswire-labs/intelstream/internal/core/domain"
	"github.com/crosswire-labs/intelstream/internal/core/ports/driving"
	"github.com/crosswire-labs/intelstream/internal/logger"
)

// Server wires the aggregation ports to an HTTP router.
type Server struct {
	aggregator driving.Aggregator
	registry   driving.Registry
}

// NewServer creates an HTTP gateway over the given ports.
func NewServer(aggregator driving.Aggregator, registry driving.Registry) *Server {
	return &Server{aggregator: aggregator, registry: registry}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.handleHealth)
	r.GET("/v1/providers", s.handleProviders)
	r.GET("/v1/stream", s.handleStream)

	return r
}

// Run serves the router until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, listen string) error {
	srv := &http.Server{
		Addr:    listen,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"providers": s.registry.Len(),
	})
}

// providerInfo is the wire shape of one registry entry.
type providerInfo struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
}

func (s *Server) handleProviders(c *gin.Context) {
	providers := s.registry.List()
	out := make([]providerInfo, 0, len(providers))
	for _, p := range providers {
		cats := make([]string, 0, len(p.Categories()))
		for _, cat := range p.Categories() {
			cats = append(cats, string(cat))
		}
		out = append(out, providerInfo{Name: p.Name(), Categories: cats})
	}
	c.JSON(http.StatusOK, gin.H{"providers": out})
}

func (s *Server) handleStream(c *gin.Context) {
	q, minRelevance, err := parseStreamQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The request context is cancelled when the client disconnects,
	// which closes every open provider slot.
	events, err := s.aggregator.StreamEvents(c.Request.Context(), q)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, domain.ErrNoProviders) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	forwarded := 0
	c.Stream(func(w io.Writer) bool {
		ev, ok := <-events
		if !ok {
			return false
		}

		switch ev.Type {
		case domain.EventItem:
			if !passesRelevance(ev.Item, minRelevance) {
				logger.Debug("stream: dropped %s below relevance floor", ev.Item.SourceURL)
				return true
			}
			forwarded++
		case domain.EventComplete:
			// The client sees the count it actually received.
			ev.TotalYielded = forwarded
		}

		c.SSEvent(string(ev.Type), ev)
		return ev.Type != domain.EventComplete
	})
}

// passesRelevance applies the per-request relevance floor. Unscored
// items always pass.
func passesRelevance(item *domain.Item, minRelevance float64) bool {
	if minRelevance <= 0 || item == nil || item.RelevanceScore == nil {
		return true
	}
	return *item.RelevanceScore >= minRelevance
}

// parseStreamQuery maps URL parameters onto a domain query.
func parseStreamQuery(c *gin.Context) (domain.Query, float64, error) {
	var q domain.Query

	if raw := c.Query("topics"); raw != "" {
		for _, topic := range strings.Split(raw, ",") {
			if topic = strings.TrimSpace(topic); topic != "" {
				q.Topics = append(q.Topics, topic)
			}
		}
	}

	q.TargetType = c.Query("target")

	if raw := c.Query("category"); raw != "" {
		cat, err := domain.ParseCategory(raw)
		if err != nil {
			return q, 0, err
		}
		q.Category = cat
	}

	if raw := c.Query("max"); raw != "" {
		max, err := strconv.Atoi(raw)
		if err != nil {
			return q, 0, errors.New("max must be an integer")
		}
		q.MaxItems = max
	}

	if raw := c.Query("timeout_ms"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil {
			return q, 0, errors.New("timeout_ms must be an integer")
		}
		q.Timeout = time.Duration(ms) * time.Millisecond
	}

	var minRelevance float64
	if raw := c.Query("min_relevance"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return q, 0, errors.New("min_relevance must be a number")
		}
		minRelevance = f
	}

	if err := q.Validate(); err != nil {
		return q, 0, err
	}

	return q, minRelevance, nil
}
