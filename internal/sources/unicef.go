package sources

import (
	"context"

	"go.uber.org/zap"
)

const unicefBaseURL = "https://data.unicef.org/api/v2"

var unicefDefinition = definition{
	kind:   UNICEF,
	name:   "UNICEF Data API",
	url:    unicefBaseURL,
	topics: []string{"health", "education", "protection", "wash", "nutrition"},
	endpoints: map[string]string{
		"health":     "/health",
		"education":  "/education",
		"protection": "/protection",
		"wash":       "/wash",
		"nutrition":  "/nutrition",
	},
	indicators: map[string][]string{
		"health":     {"infant_mortality_rate", "under5_mortality_rate", "immunization_coverage", "maternal_health"},
		"education":  {"primary_enrollment", "secondary_enrollment", "completion_rate", "gender_parity"},
		"protection": {"child_labor", "child_marriage", "birth_registration", "violence_against_children"},
		"wash":       {"water_access", "sanitation_access", "hygiene_practices", "school_wash"},
		"nutrition":  {"stunting", "wasting", "underweight", "breastfeeding"},
	},
}

// unicefFixture stands in for the UNICEF API until access is provisioned.
var unicefFixture = map[string]any{
	"health": map[string]any{
		"infant_mortality_rate": map[string]any{"2023": 35.2, "2024": 34.1},
		"under5_mortality_rate": map[string]any{"2023": 46.8, "2024": 45.2},
		"immunization_coverage": map[string]any{"2023": 85.7, "2024": 87.3},
	},
	"education": map[string]any{
		"primary_enrollment":   map[string]any{"2023": 92.3, "2024": 93.1},
		"secondary_enrollment": map[string]any{"2023": 73.4, "2024": 74.8},
		"completion_rate":      map[string]any{"2023": 78.5, "2024": 79.2},
		"gender_parity":        map[string]any{"2023": 0.98, "2024": 0.99},
	},
}

// UNICEFAdapter serves UNICEF child welfare indicators.
type UNICEFAdapter struct {
	base
	fixture map[string]any
}

// NewUNICEF registers the UNICEF data source if needed and returns the adapter.
func NewUNICEF(ctx context.Context, store Store, logger *zap.Logger) (*UNICEFAdapter, error) {
	b, err := newBase(ctx, unicefDefinition, store, logger)
	if err != nil {
		return nil, err
	}
	return &UNICEFAdapter{base: b, fixture: unicefFixture}, nil
}

// Fetch returns fixture data for the requested topics plus a metadata block.
func (u *UNICEFAdapter) Fetch(ctx context.Context, params FetchParams) (map[string]any, error) {
	data := make(map[string]any)
	for _, topic := range u.supported(params.Topics) {
		if v, ok := u.fixture[topic]; ok {
			data[topic] = Clone(v)
		}
	}
	data["metadata"] = map[string]any{
		"country":     countryName(params.region()),
		"region":      params.region(),
		"time_period": timePeriod(params),
		"data_source": "UNICEF Mock Data",
	}

	u.recordFetch(ctx, data)
	return data, nil
}

// Validate applies the shared cleaning rules.
func (u *UNICEFAdapter) Validate(raw map[string]any) map[string]any {
	return Clean(raw, nil)
}
