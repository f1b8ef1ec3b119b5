// Package collect aggregates indicator data across providers and manages
// the provider registry rows.
package collect

import (
	"context"
	"fmt"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"

	"github.com/TobiSchelling/welfarelens/internal/database"
	"github.com/TobiSchelling/welfarelens/internal/sources"
)

// Result maps lower-case source keys to cleaned payloads or {"error": msg}
// markers, in request order.
type Result = orderedmap.OrderedMap[string, any]

// NewResult returns an empty Result.
func NewResult() *Result {
	return orderedmap.New[string, any]()
}

// Store is the slice of the record store the collector uses.
type Store interface {
	ListDataSources(ctx context.Context) ([]database.DataSource, error)
	GetDataSourceByType(ctx context.Context, sourceType string) (*database.DataSource, error)
	SaveDataSources(ctx context.Context, sources []database.DataSource) error
}

// Collector fans requests out to the registered adapters.
type Collector struct {
	registry     *sources.Registry
	store        Store
	logger       *zap.Logger
	bulletins    BulletinReader
	bulletinURLs map[sources.Kind]string
	cache        Invalidator
	now          func() time.Time
}

// Option configures a Collector.
type Option func(*Collector)

// WithBulletins enables release-feed lookups during refresh.
func WithBulletins(reader BulletinReader, urls map[sources.Kind]string) Option {
	return func(c *Collector) {
		c.bulletins = reader
		c.bulletinURLs = urls
	}
}

// WithInvalidator sets the cache invalidation hook.
func WithInvalidator(inv Invalidator) Option {
	return func(c *Collector) {
		c.cache = inv
	}
}

// NewCollector creates a collector over an already-built registry.
func NewCollector(registry *sources.Registry, store Store, logger *zap.Logger, opts ...Option) *Collector {
	c := &Collector{
		registry: registry,
		store:    store,
		logger:   logger.Named("collect"),
		cache:    NoopInvalidator{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetData fetches and validates each named source in order. Unknown names
// are skipped; a failing source is recorded as {"error": msg} and never
// affects the others. Repeated names overwrite the earlier entry in place.
func (c *Collector) GetData(ctx context.Context, names []string, params sources.FetchParams) *Result {
	result := NewResult()
	for _, name := range names {
		kind, ok := sources.ParseKind(name)
		if !ok {
			c.logger.Debug("skipping unknown source", zap.String("source", name))
			continue
		}
		adapter, ok := c.registry.Get(kind)
		if !ok {
			c.logger.Debug("no adapter registered", zap.String("source", name))
			continue
		}

		payload, err := c.fetchOne(ctx, adapter, params)
		if err != nil {
			c.logger.Error("fetching source failed", zap.String("source", name), zap.Error(err))
			result.Set(kind.Key(), map[string]any{"error": err.Error()})
			continue
		}
		result.Set(kind.Key(), payload)
	}
	return result
}

// fetchOne runs fetch then validate, converting a panic into an error.
func (c *Collector) fetchOne(ctx context.Context, adapter sources.Adapter, params sources.FetchParams) (payload map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			payload = nil
			err = fmt.Errorf("%s adapter panicked: %v", adapter.Kind(), r)
		}
	}()

	raw, err := adapter.Fetch(ctx, params)
	if err != nil {
		return nil, err
	}
	return adapter.Validate(raw), nil
}

// AvailableSources returns every registered DataSource row.
func (c *Collector) AvailableSources(ctx context.Context) ([]database.DataSource, error) {
	rows, err := c.store.ListDataSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing data sources: %w", err)
	}
	if rows == nil {
		rows = []database.DataSource{}
	}
	return rows, nil
}

// SourceMetadata returns the row for one provider, or nil if unregistered.
func (c *Collector) SourceMetadata(ctx context.Context, kind sources.Kind) (*database.DataSource, error) {
	src, err := c.store.GetDataSourceByType(ctx, string(kind))
	if err != nil {
		return nil, fmt.Errorf("loading %s data source: %w", kind, err)
	}
	return src, nil
}

// SourceIndicators returns the topic to indicator table for a provider.
func (c *Collector) SourceIndicators(kind sources.Kind) (map[string][]string, bool) {
	adapter, ok := c.registry.Get(kind)
	if !ok {
		return nil, false
	}
	return adapter.Indicators(), true
}

// RefreshSources probes each registered provider with a one-topic fetch
// for the default region and records the outcome. Administratively inactive
// providers are left untouched. All row updates commit together.
func (c *Collector) RefreshSources(ctx context.Context) (map[string]string, error) {
	rows, err := c.store.ListDataSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing data sources: %w", err)
	}

	status := make(map[string]string, len(rows))
	var updated []database.DataSource
	for _, row := range rows {
		kind, ok := sources.ParseKind(row.Type)
		if !ok {
			continue
		}
		adapter, ok := c.registry.Get(kind)
		if !ok {
			continue
		}
		if row.Status == database.SourceInactive {
			status[row.Name] = database.SourceInactive
			continue
		}

		src, msg := c.probe(ctx, adapter, row)
		c.attachRelease(ctx, kind, &src)
		status[src.Name] = msg
		updated = append(updated, src)
	}

	if len(updated) > 0 {
		if err := c.store.SaveDataSources(ctx, updated); err != nil {
			return nil, fmt.Errorf("saving refreshed sources: %w", err)
		}
	}
	c.logger.Info("refreshed data sources", zap.Int("count", len(updated)))
	return status, nil
}

func (c *Collector) probe(ctx context.Context, adapter sources.Adapter, row database.DataSource) (database.DataSource, string) {
	params := sources.FetchParams{Region: sources.DefaultRegion}
	if topics := adapter.Topics(); len(topics) > 0 {
		params.Topics = topics[:1]
	}
	payload, err := c.fetchOne(ctx, adapter, params)

	// The adapter stamps its own row during fetch; start from the latest copy.
	src := row
	if fresh, ferr := c.store.GetDataSourceByType(ctx, row.Type); ferr == nil && fresh != nil {
		src = *fresh
	}
	if src.Metadata == nil {
		src.Metadata = map[string]any{}
	}

	now := c.now().UTC()
	if err != nil {
		src.Status = database.SourceError
		src.Metadata["last_error"] = err.Error()
		src.Metadata["last_error_time"] = now.Format(time.RFC3339)
		c.logger.Warn("source refresh failed", zap.String("source", src.Name), zap.Error(err))
		return src, "error: " + err.Error()
	}

	if len(payload) > 0 {
		src.Status = database.SourceActive
	} else {
		src.Status = database.SourceError
	}
	src.LastFetch = &now
	return src, src.Status
}

func (c *Collector) attachRelease(ctx context.Context, kind sources.Kind, src *database.DataSource) {
	if c.bulletins == nil {
		return
	}
	feedURL := c.bulletinURLs[kind]
	if feedURL == "" {
		return
	}
	rel, err := c.bulletins.Latest(ctx, feedURL)
	if err != nil {
		c.logger.Warn("reading release bulletin failed", zap.String("source", src.Name), zap.Error(err))
		return
	}
	if rel != nil {
		src.Metadata["latest_release"] = rel.asMap()
	}
}

// ClearCache invalidates cached entries matching pattern and returns how
// many were removed.
func (c *Collector) ClearCache(pattern string) (int, error) {
	return c.cache.Invalidate(pattern)
}
