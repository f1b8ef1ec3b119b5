package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/TobiSchelling/welfarelens/internal/database"
)

const (
	// DefaultWorldBankURL is the World Bank Indicators API base URL.
	DefaultWorldBankURL = "https://api.worldbank.org/v2"

	// DefaultWorldBankTimeout bounds each indicator request.
	DefaultWorldBankTimeout = 30 * time.Second

	// DefaultWorldBankRateLimit is requests per second.
	DefaultWorldBankRateLimit = 5

	defaultStartYear = "2023"
	defaultEndYear   = "2024"
)

// ErrSourceInactive is returned when a provider has been taken offline.
var ErrSourceInactive = errors.New("data source is currently inactive")

var worldBankIndicators = map[string]string{
	"education":  "SE.PRM.ENRR",
	"health":     "SH.STA.MMRT",
	"poverty":    "SI.POV.NAHC",
	"sanitation": "SH.STA.BASS.ZS",
	"nutrition":  "SH.STA.STNT.ZS",
}

var worldBankDefinition = definition{
	kind:   WorldBank,
	name:   "World Bank Development Indicators",
	url:    DefaultWorldBankURL,
	topics: []string{"education", "health", "poverty", "sanitation", "nutrition"},
	endpoints: map[string]string{
		"education":  "/country/{country}/indicator/SE.PRM.ENRR",
		"health":     "/country/{country}/indicator/SH.STA.MMRT",
		"poverty":    "/country/{country}/indicator/SI.POV.NAHC",
		"sanitation": "/country/{country}/indicator/SH.STA.BASS.ZS",
		"nutrition":  "/country/{country}/indicator/SH.STA.STNT.ZS",
	},
	indicators: map[string][]string{
		"education":  {"primary_enrollment_rate", "secondary_enrollment_rate", "completion_rate", "literacy_rate"},
		"health":     {"maternal_mortality", "child_mortality", "healthcare_access", "health_expenditure"},
		"poverty":    {"poverty_headcount", "poverty_gap", "gini_index", "income_share"},
		"sanitation": {"basic_sanitation", "improved_water_source", "handwashing_facilities", "open_defecation"},
		"nutrition":  {"stunting_prevalence", "wasting_prevalence", "obesity_prevalence", "food_insecurity"},
	},
}

// worldBankRequired are the fields every observation row must carry.
var worldBankRequired = []string{"indicator", "country", "value", "date"}

// WorldBankAdapter pulls development indicators over HTTP.
type WorldBankAdapter struct {
	base
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// WorldBankOption configures the adapter.
type WorldBankOption func(*WorldBankAdapter)

// WithBaseURL points the adapter at a different API root.
func WithBaseURL(baseURL string) WorldBankOption {
	return func(w *WorldBankAdapter) {
		w.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) WorldBankOption {
	return func(w *WorldBankAdapter) {
		w.httpClient = c
	}
}

// WithTimeout sets the per-request timeout. Non-positive durations are
// ignored. The adapter's client is copied, never modified in place.
func WithTimeout(d time.Duration) WorldBankOption {
	return func(w *WorldBankAdapter) {
		if d <= 0 {
			return
		}
		c := *w.httpClient
		c.Timeout = d
		w.httpClient = &c
	}
}

// WithRateLimit sets requests per second. Non-positive rates are ignored.
func WithRateLimit(perSecond float64) WorldBankOption {
	return func(w *WorldBankAdapter) {
		if perSecond <= 0 {
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		w.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewWorldBank registers the World Bank data source if needed and returns
// the adapter.
func NewWorldBank(ctx context.Context, store Store, logger *zap.Logger, opts ...WorldBankOption) (*WorldBankAdapter, error) {
	b, err := newBase(ctx, worldBankDefinition, store, logger)
	if err != nil {
		return nil, err
	}
	w := &WorldBankAdapter{
		base:       b,
		baseURL:    DefaultWorldBankURL,
		httpClient: &http.Client{Timeout: DefaultWorldBankTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultWorldBankRateLimit), DefaultWorldBankRateLimit),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Fetch issues one request per supported topic. A failed topic is recorded
// as {"error": message} and does not affect the others.
func (w *WorldBankAdapter) Fetch(ctx context.Context, params FetchParams) (map[string]any, error) {
	src, err := w.store.GetDataSourceByType(ctx, string(WorldBank))
	if err != nil {
		return nil, fmt.Errorf("loading World Bank data source: %w", err)
	}
	if src != nil && src.Status == database.SourceInactive {
		return nil, fmt.Errorf("World Bank: %w", ErrSourceInactive)
	}

	data := make(map[string]any)
	for _, topic := range w.supported(params.Topics) {
		rows, err := w.fetchTopic(ctx, topic, params)
		if err != nil {
			w.logger.Error("fetching topic failed", zap.String("topic", topic), zap.Error(err))
			data[topic] = map[string]any{"error": err.Error()}
			continue
		}
		data[topic] = rows
	}

	w.recordFetch(ctx, data)
	return data, nil
}

func (w *WorldBankAdapter) fetchTopic(ctx context.Context, topic string, params FetchParams) (any, error) {
	if err := w.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	path := fmt.Sprintf("/country/%s/indicator/%s", url.PathEscape(params.region()), worldBankIndicators[topic])
	q := url.Values{}
	q.Set("format", "json")
	q.Set("per_page", "1000")
	q.Set("date", yearOr(params.StartDate, defaultStartYear)+":"+yearOr(params.EndDate, defaultEndYear))
	if len(params.Indicators) > 0 {
		q.Set("source", params.Indicators[0])
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	w.logger.Debug("World Bank request", zap.String("topic", topic), zap.String("path", path))

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("World Bank API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	// The API answers [pagination, rows].
	if list, ok := payload.([]any); ok && len(list) > 1 {
		return list[1], nil
	}
	return payload, nil
}

// Validate keeps only observation rows that carry every required field.
func (w *WorldBankAdapter) Validate(raw map[string]any) map[string]any {
	return Clean(raw, filterObservations)
}

func filterObservations(v any) any {
	list, ok := v.([]any)
	if !ok {
		return v
	}
	kept := make([]any, 0, len(list))
	for _, item := range list {
		cleaned, ok := cleanValue(item)
		if !ok {
			continue
		}
		row, ok := cleaned.(map[string]any)
		if !ok || !hasFields(row, worldBankRequired) {
			continue
		}
		kept = append(kept, row)
	}
	return kept
}

func hasFields(row map[string]any, fields []string) bool {
	for _, f := range fields {
		if v, ok := row[f]; !ok || v == nil {
			return false
		}
	}
	return true
}

func yearOr(t time.Time, fallback string) string {
	if t.IsZero() {
		return fallback
	}
	return strconv.Itoa(t.Year())
}
