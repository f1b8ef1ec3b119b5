package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/TobiSchelling/welfarelens/internal/apperrors"
	"github.com/TobiSchelling/welfarelens/internal/database"
	"github.com/TobiSchelling/welfarelens/internal/generate"
	"github.com/TobiSchelling/welfarelens/internal/sources"
)

// AnalysisPipeline aggregates source data and runs the analysis capability
// over it. An analysis moves pending -> completed | failed exactly once.
type AnalysisPipeline struct {
	store     Store
	collector Aggregator
	analyzer  generate.Analyzer
	limits    Limits
	logger    *zap.Logger
	now       func() time.Time
}

// Run executes an analysis for requester, or anonymously when requester is
// nil. Anonymous runs skip the per-user pending cap.
func (p *AnalysisPipeline) Run(ctx context.Context, requester *int64, req *AnalysisRequest) (*database.Analysis, error) {
	if requester != nil {
		pending, err := p.store.CountAnalysesByStatus(ctx, *requester, database.AnalysisPending)
		if err != nil {
			return nil, fmt.Errorf("counting pending analyses: %w", err)
		}
		if pending >= p.limits.MaxPendingAnalyses {
			return nil, apperrors.RateLimited("Too many pending analyses. Please wait for some to complete.")
		}
	}

	start, end := req.StartDate, req.EndDate
	a := &database.Analysis{
		UserID:         requester,
		Status:         database.AnalysisPending,
		Sources:        req.Sources,
		Topics:         req.Topics,
		Region:         req.Region,
		DateRangeStart: &start,
		DateRangeEnd:   &end,
	}
	if _, err := p.store.InsertAnalysis(ctx, a); err != nil {
		return nil, fmt.Errorf("creating analysis: %w", err)
	}
	log := p.logger.With(zap.Int64("analysis_id", a.ID))
	log.Info("analysis started", zap.Strings("sources", req.Sources), zap.Strings("topics", req.Topics))

	// Terminal writes must land even if the caller goes away.
	done := context.WithoutCancel(ctx)

	data := p.collector.GetData(ctx, req.Sources, sources.FetchParams{
		Topics:    req.Topics,
		Region:    req.Region,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, p.fail(done, a, fmt.Errorf("encoding source data: %w", err))
	}
	if err := p.store.SetAnalysisRawData(done, a.ID, raw, p.now()); err != nil {
		return nil, p.fail(done, a, fmt.Errorf("storing source data: %w", err))
	}
	a.RawData = raw

	actx, cancel := context.WithTimeout(ctx, p.limits.AnalysisTimeout)
	result, err := p.analyzer.AnalyzeData(actx, json.RawMessage(raw))
	timedOut := errors.Is(actx.Err(), context.DeadlineExceeded)
	cancel()
	if err != nil {
		if timedOut {
			err = fmt.Errorf("analysis timed out after %s: %w", p.limits.AnalysisTimeout, err)
		}
		return nil, p.fail(done, a, err)
	}
	if result == nil {
		return nil, p.fail(done, a, errNoFindings)
	}

	results, err := json.Marshal(result)
	if err != nil {
		return nil, p.fail(done, a, fmt.Errorf("encoding analysis results: %w", err))
	}
	at := p.now()
	if err := p.store.CompleteAnalysis(done, a.ID, results, at); err != nil {
		return nil, p.fail(done, a, fmt.Errorf("completing analysis: %w", err))
	}
	a.Status = database.AnalysisCompleted
	a.AnalysisResults = results
	a.UpdatedAt = at

	log.Info("analysis completed", zap.Int("key_findings", len(result.KeyFindings)))
	return a, nil
}

// fail moves the analysis to failed and returns the error for the caller.
func (p *AnalysisPipeline) fail(ctx context.Context, a *database.Analysis, cause error) error {
	msg := cause.Error()
	at := p.now()
	if err := p.store.FailAnalysis(ctx, a.ID, msg, at); err != nil {
		p.logger.Error("recording analysis failure", zap.Int64("analysis_id", a.ID), zap.Error(err))
	} else {
		a.Status = database.AnalysisFailed
		a.Error = &msg
		a.UpdatedAt = at
	}
	p.logger.Warn("analysis failed", zap.Int64("analysis_id", a.ID), zap.Error(cause))
	return apperrors.Upstream("ANALYSIS_ERROR", "Error running analysis", cause)
}

// Get returns an analysis owned by requester.
func (p *AnalysisPipeline) Get(ctx context.Context, requester, id int64) (*database.Analysis, error) {
	a, err := p.store.GetAnalysis(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading analysis %d: %w", id, err)
	}
	if a == nil {
		return nil, apperrors.NotFound("ANALYSIS_NOT_FOUND", "Analysis not found")
	}
	if !owns(a.UserID, requester) {
		return nil, apperrors.Forbidden("Unauthorized to access this analysis")
	}
	return a, nil
}

// ListForUser returns the analyses of userID, newest first. Only the user
// themselves may list them.
func (p *AnalysisPipeline) ListForUser(ctx context.Context, requester, userID int64) ([]database.Analysis, error) {
	if requester != userID {
		return nil, apperrors.Forbidden("Unauthorized to access these analyses")
	}
	list, err := p.store.ListAnalysesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	if list == nil {
		list = []database.Analysis{}
	}
	return list, nil
}

// Delete removes an analysis together with its reports and briefs.
func (p *AnalysisPipeline) Delete(ctx context.Context, requester, id int64) error {
	if _, err := p.Get(ctx, requester, id); err != nil {
		return err
	}
	deleted, err := p.store.DeleteAnalysis(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting analysis %d: %w", id, err)
	}
	if !deleted {
		return apperrors.NotFound("ANALYSIS_NOT_FOUND", "Analysis not found")
	}
	p.logger.Info("analysis deleted", zap.Int64("analysis_id", id))
	return nil
}
