// Package sources implements the indicator provider adapters. Each adapter
// fetches raw topic data for a region and cleans it with a shared validator.
package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TobiSchelling/welfarelens/internal/database"
)

// Kind identifies a provider. The set is closed.
type Kind string

const (
	UNICEF    Kind = "UNICEF"
	WHO       Kind = "WHO"
	WorldBank Kind = "WORLDBANK"
)

// Kinds lists every supported provider in registration order.
var Kinds = []Kind{UNICEF, WHO, WorldBank}

// ParseKind resolves a caller-supplied source name, case-insensitively.
func ParseKind(name string) (Kind, bool) {
	k := Kind(strings.ToUpper(strings.TrimSpace(name)))
	for _, known := range Kinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// Key is the lower-case form used in aggregated results.
func (k Kind) Key() string {
	return strings.ToLower(string(k))
}

// DefaultRegion is the ISO3 country code used when none is given.
const DefaultRegion = "GHA"

// FetchParams selects what an adapter pulls.
type FetchParams struct {
	Topics     []string
	Region     string
	StartDate  time.Time
	EndDate    time.Time
	Indicators []string
}

func (p FetchParams) region() string {
	if p.Region == "" {
		return DefaultRegion
	}
	return p.Region
}

// Adapter is the contract every provider implements.
type Adapter interface {
	Kind() Kind
	// Topics returns the supported topic keys in a stable order.
	Topics() []string
	Endpoints() map[string]string
	Indicators() map[string][]string
	Fetch(ctx context.Context, params FetchParams) (map[string]any, error)
	Validate(raw map[string]any) map[string]any
}

// Store is the slice of the record store adapters need.
type Store interface {
	GetDataSourceByType(ctx context.Context, sourceType string) (*database.DataSource, error)
	InsertDataSource(ctx context.Context, s *database.DataSource) (int64, error)
	RecordFetch(ctx context.Context, sourceType string, at time.Time, status string) error
}

// definition is the static description of a provider.
type definition struct {
	kind       Kind
	name       string
	url        string
	topics     []string
	endpoints  map[string]string
	indicators map[string][]string
}

// base carries what all adapters share: registration, metadata accessors
// and fetch bookkeeping.
type base struct {
	def    definition
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

func newBase(ctx context.Context, def definition, store Store, logger *zap.Logger) (base, error) {
	b := base{
		def:    def,
		store:  store,
		logger: logger.Named(strings.ToLower(string(def.kind))),
		now:    time.Now,
	}
	if err := b.register(ctx); err != nil {
		return base{}, err
	}
	return b, nil
}

// register creates the DataSource row if it does not exist yet.
func (b *base) register(ctx context.Context) error {
	existing, err := b.store.GetDataSourceByType(ctx, string(b.def.kind))
	if err != nil {
		return fmt.Errorf("looking up %s data source: %w", b.def.kind, err)
	}
	if existing != nil {
		return nil
	}

	endpoints := make(map[string]any, len(b.def.endpoints))
	for k, v := range b.def.endpoints {
		endpoints[k] = v
	}
	indicators := make(map[string]any, len(b.def.indicators))
	for k, v := range b.def.indicators {
		indicators[k] = v
	}
	_, err = b.store.InsertDataSource(ctx, &database.DataSource{
		Name:   b.def.name,
		Type:   string(b.def.kind),
		URL:    b.def.url,
		Status: database.SourceActive,
		Metadata: map[string]any{
			"endpoints":            endpoints,
			"supported_indicators": indicators,
		},
	})
	if err != nil {
		return fmt.Errorf("registering %s data source: %w", b.def.kind, err)
	}
	b.logger.Info("registered data source", zap.String("name", b.def.name))
	return nil
}

func (b *base) Kind() Kind { return b.def.kind }

func (b *base) Topics() []string {
	return append([]string(nil), b.def.topics...)
}

func (b *base) Endpoints() map[string]string {
	out := make(map[string]string, len(b.def.endpoints))
	for k, v := range b.def.endpoints {
		out[k] = v
	}
	return out
}

func (b *base) Indicators() map[string][]string {
	out := make(map[string][]string, len(b.def.indicators))
	for k, v := range b.def.indicators {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// supported filters topics to the ones this provider knows, logging the rest.
func (b *base) supported(topics []string) []string {
	var out []string
	for _, t := range topics {
		if _, ok := b.def.endpoints[t]; !ok {
			b.logger.Warn("unsupported topic", zap.String("topic", t))
			continue
		}
		out = append(out, t)
	}
	return out
}

// recordFetch stamps last_fetch and last_fetch_status. A bookkeeping failure
// is logged but never fails the fetch.
func (b *base) recordFetch(ctx context.Context, data map[string]any) {
	status := "success"
	if len(data) == 0 {
		status = "partial"
	}
	for _, v := range data {
		if isErrorMarker(v) {
			status = "partial"
			break
		}
	}
	if err := b.store.RecordFetch(ctx, string(b.def.kind), b.now(), status); err != nil {
		b.logger.Warn("failed to record fetch", zap.Error(err))
	}
}

var countryNames = map[string]string{
	"GHA": "Ghana",
	"NGA": "Nigeria",
	"KEN": "Kenya",
	"SEN": "Senegal",
	"CIV": "Côte d'Ivoire",
	"TGO": "Togo",
	"BFA": "Burkina Faso",
}

func countryName(region string) string {
	if name, ok := countryNames[strings.ToUpper(region)]; ok {
		return name
	}
	return region
}

func timePeriod(p FetchParams) string {
	if p.StartDate.IsZero() && p.EndDate.IsZero() {
		return ""
	}
	format := func(t time.Time) string {
		if t.IsZero() {
			return "open"
		}
		return t.Format("2006-01-02")
	}
	return format(p.StartDate) + " to " + format(p.EndDate)
}
