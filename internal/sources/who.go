package sources

import (
	"context"

	"go.uber.org/zap"
)

const whoBaseURL = "https://ghoapi.azureedge.net/api"

// healthTopic groups the WHO health sub-topics under one umbrella key.
const healthTopic = "health"

var whoDefinition = definition{
	kind:   WHO,
	name:   "WHO Global Health Observatory",
	url:    whoBaseURL,
	topics: []string{"child_mortality", "immunization", "nutrition", "maternal_health", "disease_prevention"},
	endpoints: map[string]string{
		"child_mortality":    "/indicator/CHILDMORT",
		"immunization":       "/indicator/IMMUNIZATION",
		"nutrition":          "/indicator/NUTRITION",
		"maternal_health":    "/indicator/MATERNALHEALTH",
		"disease_prevention": "/indicator/DISEASE",
	},
	indicators: map[string][]string{
		"child_mortality":    {"under_five_mortality_rate", "infant_mortality_rate", "neonatal_mortality_rate"},
		"immunization":       {"dtp3_coverage", "measles_coverage", "polio_coverage", "bcg_coverage"},
		"nutrition":          {"stunting_prevalence", "wasting_prevalence", "underweight_prevalence", "exclusive_breastfeeding"},
		"maternal_health":    {"maternal_mortality_ratio", "skilled_birth_attendance", "antenatal_care_coverage"},
		"disease_prevention": {"malaria_incidence", "tuberculosis_incidence", "hiv_prevalence"},
	},
}

var whoHealthFixture = map[string]any{
	"child_mortality": map[string]any{
		"2023": map[string]any{"rate": 48.3, "confidence_interval": []any{45.2, 51.4}},
		"2024": map[string]any{"rate": 46.9, "confidence_interval": []any{43.8, 50.0}},
	},
	"immunization": map[string]any{
		"dtp3_coverage":    map[string]any{"2023": 89.2, "2024": 90.5},
		"measles_coverage": map[string]any{"2023": 86.7, "2024": 88.1},
	},
	"nutrition": map[string]any{
		"stunting_prevalence": map[string]any{"2023": 18.8, "2024": 18.1},
		"wasting_prevalence":  map[string]any{"2023": 6.8, "2024": 6.5},
	},
}

// WHOAdapter serves WHO Global Health Observatory indicators.
type WHOAdapter struct {
	base
	fixture map[string]any
}

// NewWHO registers the WHO data source if needed and returns the adapter.
func NewWHO(ctx context.Context, store Store, logger *zap.Logger) (*WHOAdapter, error) {
	b, err := newBase(ctx, whoDefinition, store, logger)
	if err != nil {
		return nil, err
	}
	return &WHOAdapter{base: b, fixture: whoHealthFixture}, nil
}

// Fetch returns fixture data. The umbrella topic "health" yields every
// health sub-topic nested under one key.
func (w *WHOAdapter) Fetch(ctx context.Context, params FetchParams) (map[string]any, error) {
	data := make(map[string]any)
	var topics []string
	for _, t := range params.Topics {
		if t == healthTopic {
			data[healthTopic] = Clone(w.fixture)
			continue
		}
		topics = append(topics, t)
	}
	for _, topic := range w.supported(topics) {
		if v, ok := w.fixture[topic]; ok {
			data[topic] = Clone(v)
		}
	}
	data["metadata"] = map[string]any{
		"country":      countryName(params.region()),
		"region":       params.region(),
		"source":       "WHO Mock Data",
		"last_updated": w.now().UTC().Format("2006-01-02T15:04:05Z"),
	}

	w.recordFetch(ctx, data)
	return data, nil
}

// Validate reshapes GHO value/dimension payloads before shared cleaning.
func (w *WHOAdapter) Validate(raw map[string]any) map[string]any {
	return Clean(raw, reshapeGHO)
}

// reshapeGHO turns {"value": [...], "dimension": {...}} into
// {"values": [...], "dimensions": {...}}, keeping only dimensions whose
// members are all valid.
func reshapeGHO(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	rawValues, hasValue := m["value"]
	rawDims, hasDim := m["dimension"]
	if !hasValue || !hasDim {
		return v
	}

	values, _ := rawValues.([]any)
	dims := map[string]any{}
	if dm, ok := rawDims.(map[string]any); ok {
		for name, members := range dm {
			list, ok := members.([]any)
			if !ok || !allValid(list) {
				continue
			}
			dims[name] = list
		}
	}
	return map[string]any{"values": values, "dimensions": dims}
}

func allValid(items []any) bool {
	for _, item := range items {
		if _, ok := cleanValue(item); !ok {
			return false
		}
	}
	return true
}
