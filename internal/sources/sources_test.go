package sources

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TobiSchelling/welfarelens/internal/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestParseKind(t *testing.T) {
	for _, in := range []string{"unicef", "UNICEF", " Unicef "} {
		k, ok := ParseKind(in)
		assert.True(t, ok, in)
		assert.Equal(t, UNICEF, k)
	}
	k, ok := ParseKind("worldbank")
	assert.True(t, ok)
	assert.Equal(t, WorldBank, k)
	assert.Equal(t, "worldbank", k.Key())

	_, ok = ParseKind("imf")
	assert.False(t, ok)
}

func TestCleanDropsErrorsAndEmpties(t *testing.T) {
	raw := map[string]any{
		"health":   map[string]any{"rate": 12.5, "note": "  ", "missing": nil},
		"broken":   map[string]any{"error": "timeout"},
		"empty":    map[string]any{"a": nil, "b": ""},
		"list":     []any{1.0, nil, "", map[string]any{}, "ok"},
		"flag":     true,
		"metadata": map[string]any{"country": "Ghana", "time_period": ""},
	}

	got := Clean(raw, nil)

	assert.Equal(t, map[string]any{
		"health":   map[string]any{"rate": 12.5},
		"list":     []any{1.0, "ok"},
		"flag":     true,
		"metadata": map[string]any{"country": "Ghana"},
	}, got)
}

func TestCleanIsIdempotent(t *testing.T) {
	cases := []map[string]any{
		unicefFixture,
		{"health": whoHealthFixture},
		{
			"nested": map[string]any{
				"deep": map[string]any{"x": []any{nil, map[string]any{"y": ""}}},
				"keep": []any{map[string]any{"z": 1.0, "w": nil}},
			},
			"typed": []float64{1, 2},
		},
	}
	for i, raw := range cases {
		once := Clean(raw, nil)
		twice := Clean(once, nil)
		assert.Equal(t, once, twice, "case %d", i)
	}

	gho := map[string]any{"mortality": map[string]any{
		"value":     []any{1.0, nil, 2.0},
		"dimension": map[string]any{"year": []any{"2023", "2024"}, "bad": []any{"x", nil}},
	}}
	once := Clean(gho, reshapeGHO)
	assert.Equal(t, once, Clean(once, reshapeGHO))

	wb := map[string]any{"education": []any{
		map[string]any{"indicator": map[string]any{"id": "SE.PRM.ENRR"}, "country": map[string]any{"id": "GH"}, "value": 95.1, "date": "2023", "unit": ""},
		map[string]any{"indicator": map[string]any{"id": ""}, "country": map[string]any{"id": "GH"}, "value": 94.0, "date": "2022"},
	}}
	once = Clean(wb, filterObservations)
	assert.Equal(t, once, Clean(once, filterObservations))
	assert.Len(t, once["education"], 1)
}

func TestReshapeGHO(t *testing.T) {
	got := Clean(map[string]any{"mortality": map[string]any{
		"value":     []any{1.0, nil, 2.0},
		"dimension": map[string]any{"year": []any{"2023", "2024"}, "bad": []any{"x", nil}},
	}}, reshapeGHO)

	assert.Equal(t, map[string]any{
		"values":     []any{1.0, 2.0},
		"dimensions": map[string]any{"year": []any{"2023", "2024"}},
	}, got["mortality"])
}

func TestUNICEFRegistersAndFetches(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	u, err := NewUNICEF(ctx, db, zap.NewNop())
	require.NoError(t, err)

	src, err := db.GetDataSourceByType(ctx, "UNICEF")
	require.NoError(t, err)
	require.NotNil(t, src)
	assert.Equal(t, "UNICEF Data API", src.Name)
	assert.Contains(t, src.Metadata, "supported_indicators")

	data, err := u.Fetch(ctx, FetchParams{Topics: []string{"health", "education", "space"}})
	require.NoError(t, err)
	assert.Contains(t, data, "health")
	assert.Contains(t, data, "education")
	assert.NotContains(t, data, "space")
	meta := data["metadata"].(map[string]any)
	assert.Equal(t, "Ghana", meta["country"])
	assert.Equal(t, "GHA", meta["region"])

	src, err = db.GetDataSourceByType(ctx, "UNICEF")
	require.NoError(t, err)
	assert.NotNil(t, src.LastFetch)
	assert.Equal(t, "success", src.Metadata["last_fetch_status"])

	// Validation strips the blank time_period.
	clean := u.Validate(data)
	assert.NotContains(t, clean["metadata"], "time_period")

	// Fetched data is a copy; mutating it leaves the fixture intact.
	data["health"].(map[string]any)["infant_mortality_rate"] = nil
	again, err := u.Fetch(ctx, FetchParams{Topics: []string{"health"}})
	require.NoError(t, err)
	assert.NotNil(t, again["health"].(map[string]any)["infant_mortality_rate"])
}

func TestRegisterIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := NewWHO(ctx, db, zap.NewNop())
	require.NoError(t, err)
	_, err = NewWHO(ctx, db, zap.NewNop())
	require.NoError(t, err)

	all, err := db.ListDataSources(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestWHOHealthUmbrella(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	w, err := NewWHO(ctx, db, zap.NewNop())
	require.NoError(t, err)

	data, err := w.Fetch(ctx, FetchParams{Topics: []string{"health", "immunization", "education"}})
	require.NoError(t, err)
	health := data["health"].(map[string]any)
	assert.Contains(t, health, "child_mortality")
	assert.Contains(t, data, "immunization")
	assert.NotContains(t, data, "education")

	assert.Equal(t, []string{"child_mortality", "immunization", "nutrition", "maternal_health", "disease_prevention"}, w.Topics())
	assert.Len(t, w.Indicators()["immunization"], 4)
}

func TestBuildRegistry(t *testing.T) {
	db := openTestDB(t)
	reg, err := Build(context.Background(), db, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, []Kind{UNICEF, WHO, WorldBank}, reg.Kinds())
	a, ok := reg.Get(WHO)
	require.True(t, ok)
	assert.Equal(t, WHO, a.Kind())

	all, err := db.ListDataSources(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
