package pipeline

import (
	"context"
	"fmt"
	"maps"

	"go.uber.org/zap"

	"github.com/TobiSchelling/welfarelens/internal/apperrors"
	"github.com/TobiSchelling/welfarelens/internal/database"
	"github.com/TobiSchelling/welfarelens/internal/generate"
)

// BriefPipeline creates and maintains the single policy brief a report may
// carry.
type BriefPipeline struct {
	store    Store
	analyzer generate.Analyzer
	limits   Limits
	logger   *zap.Logger
}

// Create generates a brief for a report owned by requester.
func (p *BriefPipeline) Create(ctx context.Context, requester int64, req *BriefRequest) (*database.PolicyBrief, error) {
	report, err := p.ownedReport(ctx, requester, req.ReportID)
	if err != nil {
		return nil, err
	}

	existing, err := p.store.GetPolicyBriefByReport(ctx, report.ID)
	if err != nil {
		return nil, fmt.Errorf("checking existing brief: %w", err)
	}
	if existing != nil {
		return nil, apperrors.Conflict("BRIEF_EXISTS", "Policy brief already exists for this report")
	}

	a, err := p.store.GetAnalysis(ctx, report.AnalysisID)
	if err != nil {
		return nil, fmt.Errorf("loading analysis %d: %w", report.AnalysisID, err)
	}
	if a == nil {
		return nil, apperrors.NotFound("ANALYSIS_NOT_FOUND", "Analysis not found")
	}
	f, err := findings(a.AnalysisResults)
	if err != nil {
		return nil, apperrors.Upstream("GENERATION_ERROR", "Error generating policy brief", err)
	}

	gctx, cancel := context.WithTimeout(ctx, p.limits.PolicyTimeout)
	generated, err := p.analyzer.GeneratePolicyBrief(gctx, f, req.TargetAudience)
	cancel()
	if err == nil && generated == nil {
		err = errNoBrief
	}
	if err != nil {
		p.logger.Warn("policy brief generation failed", zap.Int64("report_id", report.ID), zap.Error(err))
		return nil, apperrors.Upstream("GENERATION_ERROR", "Error generating policy brief", err)
	}

	b := &database.PolicyBrief{
		ReportID:             report.ID,
		ExecutiveSummary:     generated.ExecutiveSummary,
		KeyFindings:          generated.KeyFindings,
		TargetAudience:       req.TargetAudience,
		ResourceRequirements: generated.ResourceRequirements,
		ImpactAssessment:     generated.ImpactAssessment,
	}
	for _, rec := range generated.Recommendations {
		b.Recommendations = append(b.Recommendations, database.Recommendation(rec))
	}
	if _, err := p.store.InsertPolicyBrief(ctx, b); err != nil {
		return nil, fmt.Errorf("storing policy brief: %w", err)
	}
	p.logger.Info("policy brief created", zap.Int64("brief_id", b.ID), zap.Int64("report_id", report.ID))
	return b, nil
}

// Get returns a brief whose report is owned by requester.
func (p *BriefPipeline) Get(ctx context.Context, requester, id int64) (*database.PolicyBrief, error) {
	b, err := p.store.GetPolicyBrief(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading policy brief %d: %w", id, err)
	}
	if b == nil {
		return nil, apperrors.NotFound("BRIEF_NOT_FOUND", "Policy brief not found")
	}
	if _, err := p.ownedReport(ctx, requester, b.ReportID); err != nil {
		return nil, err
	}
	return b, nil
}

// GetForReport returns the brief attached to a report.
func (p *BriefPipeline) GetForReport(ctx context.Context, requester, reportID int64) (*database.PolicyBrief, error) {
	if _, err := p.ownedReport(ctx, requester, reportID); err != nil {
		return nil, err
	}
	b, err := p.store.GetPolicyBriefByReport(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("loading policy brief: %w", err)
	}
	if b == nil {
		return nil, apperrors.NotFound("BRIEF_NOT_FOUND", "Policy brief not found")
	}
	return b, nil
}

// Update replaces the audience and shallow-merges the resource and impact
// sections.
func (p *BriefPipeline) Update(ctx context.Context, requester, id int64, upd *BriefUpdate) (*database.PolicyBrief, error) {
	b, err := p.Get(ctx, requester, id)
	if err != nil {
		return nil, err
	}
	if upd.TargetAudience != "" {
		b.TargetAudience = upd.TargetAudience
	}
	b.ResourceRequirements = merge(b.ResourceRequirements, upd.ResourceRequirements)
	b.ImpactAssessment = merge(b.ImpactAssessment, upd.ImpactAssessment)

	if err := p.store.UpdatePolicyBrief(ctx, b); err != nil {
		return nil, fmt.Errorf("updating policy brief %d: %w", id, err)
	}
	return b, nil
}

func (p *BriefPipeline) ownedReport(ctx context.Context, requester, reportID int64) (*database.Report, error) {
	r, err := p.store.GetReport(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("loading report %d: %w", reportID, err)
	}
	if r == nil {
		return nil, apperrors.NotFound("REPORT_NOT_FOUND", "Report not found")
	}
	if r.UserID != requester {
		return nil, apperrors.Forbidden("Unauthorized to access this report")
	}
	return r, nil
}

func merge(dst, src map[string]any) map[string]any {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = map[string]any{}
	}
	maps.Copy(dst, src)
	return dst
}
