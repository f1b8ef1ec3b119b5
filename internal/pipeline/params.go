package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/TobiSchelling/welfarelens/internal/apperrors"
	"github.com/TobiSchelling/welfarelens/internal/sources"
)

const dateLayout = "2006-01-02"

var (
	defaultStartDate = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	defaultEndDate   = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
)

// Report types, formats and brief audiences accepted by the workflows.
var (
	ReportTypes     = []string{"summary", "policy_brief", "full_report"}
	ReportFormats   = []string{"pdf", "json", "html"}
	TargetAudiences = []string{"policymakers", "stakeholders", "public", "technical"}
)

var validate = validator.New()

// AnalysisRequest is a validated request to run an analysis.
type AnalysisRequest struct {
	Sources   []string
	Topics    []string
	Region    string
	StartDate time.Time
	EndDate   time.Time
}

// ReportRequest is a validated request to generate a report.
type ReportRequest struct {
	AnalysisID int64  `validate:"gt=0"`
	Type       string `validate:"oneof=summary policy_brief full_report"`
	Format     string `validate:"oneof=pdf json html"`
}

// ReportUpdate holds the mutable fields of a report. Empty strings leave
// the field unchanged.
type ReportUpdate struct {
	Type     string         `validate:"omitempty,oneof=summary policy_brief full_report"`
	Format   string         `validate:"omitempty,oneof=pdf json html"`
	Metadata map[string]any `validate:"-"`
}

// BriefRequest is a validated request to create a policy brief.
type BriefRequest struct {
	ReportID       int64  `validate:"gt=0"`
	TargetAudience string `validate:"oneof=policymakers stakeholders public technical"`
}

// BriefUpdate holds the mutable fields of a brief.
type BriefUpdate struct {
	TargetAudience       string         `validate:"omitempty,oneof=policymakers stakeholders public technical"`
	ResourceRequirements map[string]any `validate:"-"`
	ImpactAssessment     map[string]any `validate:"-"`
}

// ParseAnalysisParams validates a decoded JSON body for an analysis run.
func ParseAnalysisParams(params map[string]any) (*AnalysisRequest, error) {
	if len(params) == 0 {
		return nil, apperrors.Validation("No parameters provided")
	}

	var missing []string
	for _, field := range []string{"sources", "topics"} {
		if _, ok := params[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.Validation("Missing required fields: " + strings.Join(missing, ", "))
	}

	srcs, ok := stringSlice(params["sources"])
	if !ok {
		return nil, apperrors.Validation("Sources must be a list")
	}
	topics, ok := stringSlice(params["topics"])
	if !ok {
		return nil, apperrors.Validation("Topics must be a list")
	}

	req := &AnalysisRequest{
		Sources:   srcs,
		Topics:    topics,
		Region:    sources.DefaultRegion,
		StartDate: defaultStartDate,
		EndDate:   defaultEndDate,
	}
	if region, ok := params["region"].(string); ok && strings.TrimSpace(region) != "" {
		req.Region = strings.ToUpper(strings.TrimSpace(region))
	}

	var err error
	if req.StartDate, err = parseDate(params, "start_date", defaultStartDate); err != nil {
		return nil, err
	}
	if req.EndDate, err = parseDate(params, "end_date", defaultEndDate); err != nil {
		return nil, err
	}
	if req.StartDate.After(req.EndDate) {
		return nil, apperrors.Validation("Start date must be before end date")
	}
	return req, nil
}

// ParseReportParams validates a decoded JSON body for report generation.
func ParseReportParams(params map[string]any) (*ReportRequest, error) {
	if len(params) == 0 {
		return nil, apperrors.Validation("No parameters provided")
	}
	id, err := parseID(params, "analysis_id", "Analysis ID")
	if err != nil {
		return nil, err
	}
	req := &ReportRequest{AnalysisID: id}
	if req.Type, err = enumParam(params, "type", "Type", "summary"); err != nil {
		return nil, err
	}
	if req.Format, err = enumParam(params, "format", "Format", "json"); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, fieldError(err)
	}
	return req, nil
}

// ParseReportUpdate validates a decoded JSON body for a report update.
func ParseReportUpdate(params map[string]any) (*ReportUpdate, error) {
	if len(params) == 0 {
		return nil, apperrors.Validation("No parameters provided")
	}
	var err error
	upd := &ReportUpdate{}
	if upd.Type, err = enumParam(params, "type", "Type", ""); err != nil {
		return nil, err
	}
	if upd.Format, err = enumParam(params, "format", "Format", ""); err != nil {
		return nil, err
	}
	if raw, ok := params["metadata"]; ok && raw != nil {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, apperrors.Validation("Metadata must be an object")
		}
		upd.Metadata = m
	}
	if err := validate.Struct(upd); err != nil {
		return nil, fieldError(err)
	}
	return upd, nil
}

// ParseBriefParams validates a decoded JSON body for brief creation.
func ParseBriefParams(params map[string]any) (*BriefRequest, error) {
	if len(params) == 0 {
		return nil, apperrors.Validation("No parameters provided")
	}
	id, err := parseID(params, "report_id", "Report ID")
	if err != nil {
		return nil, err
	}
	req := &BriefRequest{ReportID: id}
	if req.TargetAudience, err = enumParam(params, "target_audience", "TargetAudience", TargetAudiences[0]); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, fieldError(err)
	}
	return req, nil
}

// ParseBriefUpdate validates a decoded JSON body for a brief update.
func ParseBriefUpdate(params map[string]any) (*BriefUpdate, error) {
	if len(params) == 0 {
		return nil, apperrors.Validation("No parameters provided")
	}
	audience, err := enumParam(params, "target_audience", "TargetAudience", "")
	if err != nil {
		return nil, err
	}
	upd := &BriefUpdate{TargetAudience: audience}
	for field, dest := range map[string]*map[string]any{
		"resource_requirements": &upd.ResourceRequirements,
		"impact_assessment":     &upd.ImpactAssessment,
	} {
		raw, ok := params[field]
		if !ok || raw == nil {
			continue
		}
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, apperrors.Validation(fmt.Sprintf("Field %s must be an object", field))
		}
		*dest = m
	}
	if err := validate.Struct(upd); err != nil {
		return nil, fieldError(err)
	}
	return upd, nil
}

// fieldError maps the first failing struct field to its user-facing message.
func fieldError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return apperrors.Validation(err.Error())
	}
	if err := enumError(verrs[0].Field()); err != nil {
		return err
	}
	switch verrs[0].Field() {
	case "AnalysisID":
		return apperrors.Validation("Analysis ID must be a positive integer")
	case "ReportID":
		return apperrors.Validation("Report ID must be a positive integer")
	}
	return apperrors.Validation(verrs[0].Error())
}

// enumError returns the allowed-values message for an enum field, or nil.
func enumError(field string) error {
	switch field {
	case "Type":
		return apperrors.Validation("Invalid report type. Must be one of: " + strings.Join(ReportTypes, ", "))
	case "Format":
		return apperrors.Validation("Invalid format. Must be one of: " + strings.Join(ReportFormats, ", "))
	case "TargetAudience":
		return apperrors.Validation("Invalid target audience. Must be one of: " + strings.Join(TargetAudiences, ", "))
	}
	return nil
}

// enumParam reads an enum field. Absent or null keys take the fallback; any
// other value must be a non-empty string and is checked by the struct tags.
func enumParam(params map[string]any, key, field, fallback string) (string, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", enumError(field)
	}
	return s, nil
}

// stringSlice accepts a JSON list. Non-string items cannot name a source or
// topic and are dropped.
func stringSlice(v any) ([]string, bool) {
	switch items := v.(type) {
	case []string:
		return items, true
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out, true
	}
	return nil, false
}

func parseDate(params map[string]any, field string, fallback time.Time) (time.Time, error) {
	raw, ok := params[field]
	if !ok || raw == nil || raw == "" {
		return fallback, nil
	}
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, apperrors.Validation(fmt.Sprintf("Invalid %s. Expected YYYY-MM-DD", field))
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, apperrors.Validation(fmt.Sprintf("Invalid %s. Expected YYYY-MM-DD", field))
	}
	return t, nil
}

// parseID accepts the numeric shapes a decoded JSON body can carry.
func parseID(params map[string]any, field, label string) (int64, error) {
	raw, ok := params[field]
	if !ok || raw == nil {
		return 0, apperrors.Validation(label + " is required")
	}
	invalid := apperrors.Validation(label + " must be a positive integer")
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, invalid
		}
		return int64(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, invalid
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, invalid
		}
		return n, nil
	}
	return 0, invalid
}
