// Package generate turns aggregated indicator data into findings and policy
// briefs using a language model.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/TobiSchelling/welfarelens/internal/llm"
)

// DefaultAudience is used when a brief is requested without one.
const DefaultAudience = "policymakers"

// ErrNoProvider is returned when no language model is configured.
var ErrNoProvider = errors.New("no LLM provider configured")

// Findings is the structured result of analysing aggregated data.
type Findings struct {
	KeyFindings     []string `json:"key_findings" validate:"min=1"`
	Trends          []string `json:"trends"`
	Correlations    []string `json:"correlations"`
	Gaps            []string `json:"gaps"`
	Recommendations []string `json:"recommendations"`
}

// Recommendation is one proposed policy action.
type Recommendation struct {
	Action              string   `json:"action" validate:"required"`
	Rationale           string   `json:"rationale"`
	ImplementationSteps []string `json:"implementation_steps,omitempty"`
}

// Brief is a generated policy brief.
type Brief struct {
	ExecutiveSummary     string           `json:"executive_summary" validate:"required"`
	KeyFindings          []string         `json:"key_findings"`
	Recommendations      []Recommendation `json:"recommendations" validate:"dive"`
	ResourceRequirements map[string]any   `json:"resource_requirements"`
	ImpactAssessment     map[string]any   `json:"impact_assessment"`
}

// Analyzer is the generative capability the workflows depend on.
type Analyzer interface {
	AnalyzeData(ctx context.Context, data any) (*Findings, error)
	GeneratePolicyBrief(ctx context.Context, findings *Findings, audience string) (*Brief, error)
}

// LLMAnalyzer implements Analyzer over an llm.Provider.
type LLMAnalyzer struct {
	provider  llm.Provider
	maxTokens int
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewLLMAnalyzer creates an analyzer. provider may be nil, in which case
// every call fails with ErrNoProvider.
func NewLLMAnalyzer(provider llm.Provider, maxTokens int, logger *zap.Logger) *LLMAnalyzer {
	return &LLMAnalyzer{
		provider:  provider,
		maxTokens: maxTokens,
		validate:  validator.New(),
		logger:    logger.Named("generate"),
	}
}

// AnalyzeData asks the model for findings on a JSON-serialisable payload.
func (a *LLMAnalyzer) AnalyzeData(ctx context.Context, data any) (*Findings, error) {
	if a.provider == nil {
		return nil, ErrNoProvider
	}
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding analysis input: %w", err)
	}

	text, err := a.provider.Generate(ctx, fmt.Sprintf(analysisPrompt, payload), a.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	var raw map[string]any
	if err := llm.DecodeJSON(text, &raw); err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}
	findings := &Findings{
		KeyFindings:     stringList(raw["key_findings"]),
		Trends:          stringList(raw["trends"]),
		Correlations:    stringList(raw["correlations"]),
		Gaps:            stringList(raw["gaps"]),
		Recommendations: stringList(raw["recommendations"]),
	}
	if err := a.validate.Struct(findings); err != nil {
		return nil, fmt.Errorf("analysis returned no key findings: %w", err)
	}

	a.logger.Debug("analysis complete", zap.Int("key_findings", len(findings.KeyFindings)))
	return findings, nil
}

// GeneratePolicyBrief drafts a brief for the given audience from findings.
func (a *LLMAnalyzer) GeneratePolicyBrief(ctx context.Context, findings *Findings, audience string) (*Brief, error) {
	if a.provider == nil {
		return nil, ErrNoProvider
	}
	if audience == "" {
		audience = DefaultAudience
	}
	payload, err := json.MarshalIndent(findings, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding policy input: %w", err)
	}

	text, err := a.provider.Generate(ctx, fmt.Sprintf(policyPrompt, audience, payload), a.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("policy brief generation failed: %w", err)
	}

	var raw map[string]any
	if err := llm.DecodeJSON(text, &raw); err != nil {
		return nil, fmt.Errorf("policy brief generation failed: %w", err)
	}
	summary, _ := raw["executive_summary"].(string)
	brief := &Brief{
		ExecutiveSummary:     strings.TrimSpace(summary),
		KeyFindings:          stringList(raw["key_findings"]),
		Recommendations:      recommendations(raw["recommendations"]),
		ResourceRequirements: objectOrNote(raw["resource_requirements"]),
		ImpactAssessment:     objectOrNote(raw["impact_assessment"]),
	}
	if err := a.validate.Struct(brief); err != nil {
		return nil, fmt.Errorf("policy brief failed validation: %w", err)
	}
	return brief, nil
}

// stringList coerces a model-provided list into strings. Non-string items
// are kept as their JSON text.
func stringList(v any) []string {
	var items []any
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		items = x
	default:
		items = []any{x}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		switch s := item.(type) {
		case nil:
			continue
		case string:
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		default:
			data, err := json.Marshal(s)
			if err == nil {
				out = append(out, string(data))
			}
		}
	}
	return out
}

func recommendations(v any) []Recommendation {
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	var out []Recommendation
	for _, item := range items {
		switch r := item.(type) {
		case string:
			if r = strings.TrimSpace(r); r != "" {
				out = append(out, Recommendation{Action: r})
			}
		case map[string]any:
			action, _ := r["action"].(string)
			rationale, _ := r["rationale"].(string)
			out = append(out, Recommendation{
				Action:              strings.TrimSpace(action),
				Rationale:           strings.TrimSpace(rationale),
				ImplementationSteps: stringList(r["implementation_steps"]),
			})
		}
	}
	return out
}

func objectOrNote(v any) map[string]any {
	switch x := v.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		return x
	default:
		return map[string]any{"notes": stringList(x)}
	}
}
