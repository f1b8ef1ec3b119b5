package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"go.uber.org/zap"

	"github.com/TobiSchelling/welfarelens/internal/apperrors"
	"github.com/TobiSchelling/welfarelens/internal/compose"
	"github.com/TobiSchelling/welfarelens/internal/database"
	"github.com/TobiSchelling/welfarelens/internal/generate"
)

// ReportPipeline renders completed analyses into reports. A report moves
// generating -> completed | failed.
type ReportPipeline struct {
	store    Store
	analyzer generate.Analyzer
	limits   Limits
	logger   *zap.Logger
	now      func() time.Time
}

// Generate creates a report for an analysis owned by requester. All checks
// run before the report row is created.
func (p *ReportPipeline) Generate(ctx context.Context, requester int64, req *ReportRequest) (*database.Report, error) {
	a, err := p.store.GetAnalysis(ctx, req.AnalysisID)
	if err != nil {
		return nil, fmt.Errorf("loading analysis %d: %w", req.AnalysisID, err)
	}
	if a == nil {
		return nil, apperrors.NotFound("ANALYSIS_NOT_FOUND", "Analysis not found")
	}
	if !owns(a.UserID, requester) {
		return nil, apperrors.Forbidden("Unauthorized to access this analysis")
	}
	if a.Status != database.AnalysisCompleted {
		return nil, apperrors.Validation("Analysis must be completed before generating a report")
	}

	generating, err := p.store.CountReportsByStatus(ctx, requester, database.ReportGenerating)
	if err != nil {
		return nil, fmt.Errorf("counting generating reports: %w", err)
	}
	if generating >= p.limits.MaxGeneratingReports {
		return nil, apperrors.RateLimited("Too many reports being generated. Please wait for some to complete.")
	}

	r := &database.Report{
		UserID:     requester,
		AnalysisID: a.ID,
		Type:       req.Type,
		Format:     req.Format,
		Status:     database.ReportGenerating,
		Metadata: map[string]any{
			"requested_at": p.now().Format(time.RFC3339),
			"report_type":  req.Type,
			"format":       req.Format,
		},
	}
	if _, err := p.store.InsertReport(ctx, r); err != nil {
		return nil, fmt.Errorf("creating report: %w", err)
	}
	log := p.logger.With(zap.Int64("report_id", r.ID), zap.Int64("analysis_id", a.ID))
	log.Info("report generation started", zap.String("type", r.Type), zap.String("format", r.Format))

	done := context.WithoutCancel(ctx)

	content, err := p.content(ctx, a, req.Type)
	if err != nil {
		return nil, p.fail(done, r, err)
	}
	at := p.now()
	if err := p.store.CompleteReport(done, r.ID, content, at); err != nil {
		return nil, p.fail(done, r, fmt.Errorf("completing report: %w", err))
	}
	r.Status = database.ReportCompleted
	r.Content = content
	r.UpdatedAt = at

	log.Info("report completed")
	return r, nil
}

// content builds the report body for the requested type.
func (p *ReportPipeline) content(ctx context.Context, a *database.Analysis, reportType string) (json.RawMessage, error) {
	if reportType == "policy_brief" {
		f, err := findings(a.AnalysisResults)
		if err != nil {
			return nil, fmt.Errorf("decoding analysis results: %w", err)
		}
		pctx, cancel := context.WithTimeout(ctx, p.limits.PolicyTimeout)
		defer cancel()
		brief, err := p.analyzer.GeneratePolicyBrief(pctx, f, generate.DefaultAudience)
		if err != nil {
			return nil, err
		}
		if brief == nil {
			return nil, errNoBrief
		}
		return json.Marshal(brief)
	}

	var results map[string]any
	if len(a.AnalysisResults) > 0 {
		if err := json.Unmarshal(a.AnalysisResults, &results); err != nil {
			return nil, fmt.Errorf("decoding analysis results: %w", err)
		}
	}
	summary, ok := results["key_findings"]
	if !ok || summary == nil {
		summary = []any{}
	}
	return json.Marshal(map[string]any{
		"summary": summary,
		"details": results,
		"metadata": map[string]any{
			"analysis_id":  a.ID,
			"generated_at": p.now().Format(time.RFC3339),
			"data_sources": a.Sources,
			"topics":       a.Topics,
		},
	})
}

func (p *ReportPipeline) fail(ctx context.Context, r *database.Report, cause error) error {
	msg := cause.Error()
	at := p.now()
	if err := p.store.FailReport(ctx, r.ID, msg, at); err != nil {
		p.logger.Error("recording report failure", zap.Int64("report_id", r.ID), zap.Error(err))
	} else {
		r.Status = database.ReportFailed
		r.Metadata["error"] = msg
		r.UpdatedAt = at
	}
	p.logger.Warn("report generation failed", zap.Int64("report_id", r.ID), zap.Error(cause))
	return apperrors.Upstream("REPORT_GENERATION_ERROR", "Error generating report", cause)
}

// Get returns a report owned by requester.
func (p *ReportPipeline) Get(ctx context.Context, requester, id int64) (*database.Report, error) {
	r, err := p.store.GetReport(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading report %d: %w", id, err)
	}
	if r == nil {
		return nil, apperrors.NotFound("REPORT_NOT_FOUND", "Report not found")
	}
	if r.UserID != requester {
		return nil, apperrors.Forbidden("Unauthorized to access this report")
	}
	return r, nil
}

// ListForUser returns the reports of userID, newest first.
func (p *ReportPipeline) ListForUser(ctx context.Context, requester, userID int64) ([]database.Report, error) {
	if requester != userID {
		return nil, apperrors.Forbidden("Unauthorized to access these reports")
	}
	list, err := p.store.ListReportsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	if list == nil {
		list = []database.Report{}
	}
	return list, nil
}

// Update replaces type and format when given and merges metadata into
// report_metadata.
func (p *ReportPipeline) Update(ctx context.Context, requester, id int64, upd *ReportUpdate) (*database.Report, error) {
	r, err := p.Get(ctx, requester, id)
	if err != nil {
		return nil, err
	}
	if upd.Type != "" {
		r.Type = upd.Type
	}
	if upd.Format != "" {
		r.Format = upd.Format
	}
	if len(upd.Metadata) > 0 {
		if r.Metadata == nil {
			r.Metadata = map[string]any{}
		}
		maps.Copy(r.Metadata, upd.Metadata)
	}
	if err := p.store.UpdateReport(ctx, r); err != nil {
		return nil, fmt.Errorf("updating report %d: %w", id, err)
	}
	return r, nil
}

// Delete removes a report and its brief.
func (p *ReportPipeline) Delete(ctx context.Context, requester, id int64) error {
	if _, err := p.Get(ctx, requester, id); err != nil {
		return err
	}
	deleted, err := p.store.DeleteReport(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting report %d: %w", id, err)
	}
	if !deleted {
		return apperrors.NotFound("REPORT_NOT_FOUND", "Report not found")
	}
	p.logger.Info("report deleted", zap.Int64("report_id", id))
	return nil
}

// Render returns a completed report in its stored format.
func (p *ReportPipeline) Render(ctx context.Context, requester, id int64) (*compose.Document, error) {
	r, err := p.Get(ctx, requester, id)
	if err != nil {
		return nil, err
	}
	if r.Status != database.ReportCompleted {
		return nil, apperrors.Validation("Report is not ready: status is " + r.Status)
	}
	doc, err := compose.Render(r)
	if err != nil {
		return nil, fmt.Errorf("rendering report %d: %w", id, err)
	}
	return doc, nil
}
