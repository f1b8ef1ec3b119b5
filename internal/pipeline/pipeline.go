// Package pipeline runs the analysis, report and policy brief workflows on
// top of the record store, the collector and the generative capability.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/TobiSchelling/welfarelens/internal/collect"
	"github.com/TobiSchelling/welfarelens/internal/config"
	"github.com/TobiSchelling/welfarelens/internal/database"
	"github.com/TobiSchelling/welfarelens/internal/generate"
	"github.com/TobiSchelling/welfarelens/internal/sources"
)

// Limits bounds per-user work and the generative call deadlines.
type Limits struct {
	MaxPendingAnalyses   int
	MaxGeneratingReports int
	AnalysisTimeout      time.Duration
	PolicyTimeout        time.Duration
}

// DefaultLimits returns the stock caps and deadlines.
func DefaultLimits() Limits {
	return Limits{
		MaxPendingAnalyses:   50,
		MaxGeneratingReports: 5,
		AnalysisTimeout:      30 * time.Second,
		PolicyTimeout:        30 * time.Second,
	}
}

// LimitsFromConfig reads limits from config, falling back to defaults for
// unset values.
func LimitsFromConfig(cfg *config.Config) Limits {
	l := DefaultLimits()
	if cfg.Analysis.MaxPendingPerUser > 0 {
		l.MaxPendingAnalyses = cfg.Analysis.MaxPendingPerUser
	}
	if cfg.Analysis.Timeout > 0 {
		l.AnalysisTimeout = cfg.Analysis.Timeout
	}
	if cfg.Reports.MaxGeneratingPerUser > 0 {
		l.MaxGeneratingReports = cfg.Reports.MaxGeneratingPerUser
	}
	if cfg.Reports.PolicyTimeout > 0 {
		l.PolicyTimeout = cfg.Reports.PolicyTimeout
	}
	return l
}

// Store is the record store the workflows run against.
type Store interface {
	InsertAnalysis(ctx context.Context, a *database.Analysis) (int64, error)
	GetAnalysis(ctx context.Context, id int64) (*database.Analysis, error)
	ListAnalysesByUser(ctx context.Context, userID int64) ([]database.Analysis, error)
	SetAnalysisRawData(ctx context.Context, id int64, raw json.RawMessage, at time.Time) error
	CompleteAnalysis(ctx context.Context, id int64, results json.RawMessage, at time.Time) error
	FailAnalysis(ctx context.Context, id int64, message string, at time.Time) error
	DeleteAnalysis(ctx context.Context, id int64) (bool, error)
	CountAnalysesByStatus(ctx context.Context, userID int64, status string) (int, error)

	InsertReport(ctx context.Context, r *database.Report) (int64, error)
	GetReport(ctx context.Context, id int64) (*database.Report, error)
	ListReportsByUser(ctx context.Context, userID int64) ([]database.Report, error)
	CompleteReport(ctx context.Context, id int64, content json.RawMessage, at time.Time) error
	FailReport(ctx context.Context, id int64, message string, at time.Time) error
	UpdateReport(ctx context.Context, r *database.Report) error
	DeleteReport(ctx context.Context, id int64) (bool, error)
	CountReportsByStatus(ctx context.Context, userID int64, status string) (int, error)

	InsertPolicyBrief(ctx context.Context, b *database.PolicyBrief) (int64, error)
	GetPolicyBrief(ctx context.Context, id int64) (*database.PolicyBrief, error)
	GetPolicyBriefByReport(ctx context.Context, reportID int64) (*database.PolicyBrief, error)
	UpdatePolicyBrief(ctx context.Context, b *database.PolicyBrief) error
}

// Aggregator gathers indicator data across sources.
type Aggregator interface {
	GetData(ctx context.Context, names []string, params sources.FetchParams) *collect.Result
}

// Pipeline bundles the three workflows over shared dependencies.
type Pipeline struct {
	Analyses *AnalysisPipeline
	Reports  *ReportPipeline
	Briefs   *BriefPipeline
}

// New wires the workflows.
func New(store Store, collector Aggregator, analyzer generate.Analyzer, limits Limits, logger *zap.Logger) *Pipeline {
	logger = logger.Named("pipeline")
	return &Pipeline{
		Analyses: &AnalysisPipeline{
			store:     store,
			collector: collector,
			analyzer:  analyzer,
			limits:    limits,
			logger:    logger.Named("analysis"),
			now:       utcNow,
		},
		Reports: &ReportPipeline{
			store:    store,
			analyzer: analyzer,
			limits:   limits,
			logger:   logger.Named("report"),
			now:      utcNow,
		},
		Briefs: &BriefPipeline{
			store:    store,
			analyzer: analyzer,
			limits:   limits,
			logger:   logger.Named("brief"),
		},
	}
}

var (
	errNoFindings = errors.New("analyzer returned no findings")
	errNoBrief    = errors.New("analyzer returned no policy brief")
)

func utcNow() time.Time { return time.Now().UTC() }

// owns reports whether requester owns a record. Records without an owner
// belong to nobody.
func owns(owner *int64, requester int64) bool {
	return owner != nil && *owner == requester
}

// findings decodes stored analysis results into the generative input.
func findings(results json.RawMessage) (*generate.Findings, error) {
	f := &generate.Findings{}
	if len(results) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(results, f); err != nil {
		return nil, err
	}
	return f, nil
}
