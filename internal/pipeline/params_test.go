package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/welfarelens/internal/apperrors"
)

func TestParseAnalysisParamsErrors(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
		want   string
	}{
		{"empty", map[string]any{}, "No parameters provided"},
		{"nil", nil, "No parameters provided"},
		{"missing topics", map[string]any{"sources": []any{"UNICEF"}}, "Missing required fields: topics"},
		{"missing both", map[string]any{"region": "GHA"}, "Missing required fields: sources, topics"},
		{"sources not list", map[string]any{"sources": "UNICEF", "topics": []any{"health"}}, "Sources must be a list"},
		{"topics not list", map[string]any{"sources": []any{"UNICEF"}, "topics": "health"}, "Topics must be a list"},
		{"bad date", map[string]any{"sources": []any{}, "topics": []any{}, "start_date": "01/02/2023"}, "Invalid start_date. Expected YYYY-MM-DD"},
		{"reversed dates", map[string]any{
			"sources": []any{"WHO"}, "topics": []any{"health"},
			"start_date": "2024-06-01", "end_date": "2024-01-01",
		}, "Start date must be before end date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAnalysisParams(tt.params)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestParseAnalysisParamsDefaults(t *testing.T) {
	req, err := ParseAnalysisParams(map[string]any{
		"sources": []any{"UNICEF", "WHO"},
		"topics":  []any{"health", "education"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"UNICEF", "WHO"}, req.Sources)
	assert.Equal(t, []string{"health", "education"}, req.Topics)
	assert.Equal(t, "GHA", req.Region)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), req.StartDate)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), req.EndDate)
}

func TestParseAnalysisParamsExplicit(t *testing.T) {
	req, err := ParseAnalysisParams(map[string]any{
		"sources":    []string{"WORLDBANK"},
		"topics":     []any{},
		"region":     "ken",
		"start_date": "2020-01-01",
		"end_date":   "2020-01-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "KEN", req.Region)
	assert.Empty(t, req.Topics)
	assert.Equal(t, req.StartDate, req.EndDate)
}

func TestParseReportParams(t *testing.T) {
	req, err := ParseReportParams(map[string]any{"analysis_id": float64(12)})
	require.NoError(t, err)
	assert.Equal(t, &ReportRequest{AnalysisID: 12, Type: "summary", Format: "json"}, req)

	req, err = ParseReportParams(map[string]any{"analysis_id": 12, "type": nil, "format": "pdf"})
	require.NoError(t, err)
	assert.Equal(t, &ReportRequest{AnalysisID: 12, Type: "summary", Format: "pdf"}, req)

	tests := []struct {
		name   string
		params map[string]any
		want   string
	}{
		{"missing id", map[string]any{"type": "summary"}, "Analysis ID is required"},
		{"fractional id", map[string]any{"analysis_id": 1.5}, "Analysis ID must be a positive integer"},
		{"bad type", map[string]any{"analysis_id": 1, "type": "memo"},
			"Invalid report type. Must be one of: summary, policy_brief, full_report"},
		{"bad format", map[string]any{"analysis_id": 1, "format": "docx"},
			"Invalid format. Must be one of: pdf, json, html"},
		{"numeric type", map[string]any{"analysis_id": 1, "type": 7},
			"Invalid report type. Must be one of: summary, policy_brief, full_report"},
		{"empty type", map[string]any{"analysis_id": 1, "type": ""},
			"Invalid report type. Must be one of: summary, policy_brief, full_report"},
		{"boolean format", map[string]any{"analysis_id": 1, "format": true},
			"Invalid format. Must be one of: pdf, json, html"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseReportParams(tt.params)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestParseReportUpdate(t *testing.T) {
	upd, err := ParseReportUpdate(map[string]any{"format": "pdf", "metadata": map[string]any{"note": "x"}})
	require.NoError(t, err)
	assert.Equal(t, "pdf", upd.Format)
	assert.Empty(t, upd.Type)
	assert.Equal(t, "x", upd.Metadata["note"])

	_, err = ParseReportUpdate(map[string]any{"type": "memo"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = ParseReportUpdate(map[string]any{"format": ""})
	require.Error(t, err)
	assert.Equal(t, "Invalid format. Must be one of: pdf, json, html", err.Error())

	_, err = ParseReportUpdate(map[string]any{"metadata": "x"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestParseBriefParams(t *testing.T) {
	req, err := ParseBriefParams(map[string]any{"report_id": "4"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), req.ReportID)
	assert.Equal(t, "policymakers", req.TargetAudience)

	_, err = ParseBriefParams(map[string]any{"target_audience": "public"})
	require.Error(t, err)
	assert.Equal(t, "Report ID is required", err.Error())

	for _, audience := range []any{"press", 3, ""} {
		_, err = ParseBriefParams(map[string]any{"report_id": 4, "target_audience": audience})
		require.Error(t, err, "audience %v", audience)
		assert.Equal(t, "Invalid target audience. Must be one of: policymakers, stakeholders, public, technical", err.Error())
	}

	req, err = ParseBriefParams(map[string]any{"report_id": 4, "target_audience": nil})
	require.NoError(t, err)
	assert.Equal(t, "policymakers", req.TargetAudience)
}

func TestParseBriefUpdate(t *testing.T) {
	upd, err := ParseBriefUpdate(map[string]any{
		"target_audience":   "technical",
		"impact_assessment": map[string]any{"risks": "low"},
	})
	require.NoError(t, err)
	assert.Equal(t, "technical", upd.TargetAudience)
	assert.Nil(t, upd.ResourceRequirements)
	assert.Equal(t, "low", upd.ImpactAssessment["risks"])

	_, err = ParseBriefUpdate(map[string]any{"resource_requirements": []any{"x"}})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = ParseBriefUpdate(map[string]any{"target_audience": 3})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestParseAnalysisParamsDropsNonStringItems(t *testing.T) {
	req, err := ParseAnalysisParams(map[string]any{
		"sources": []any{"UNICEF", 5.0},
		"topics":  []any{nil, "health"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"UNICEF"}, req.Sources)
	assert.Equal(t, []string{"health"}, req.Topics)
}
