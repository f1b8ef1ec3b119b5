package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TobiSchelling/welfarelens/internal/apperrors"
	"github.com/TobiSchelling/welfarelens/internal/collect"
	"github.com/TobiSchelling/welfarelens/internal/database"
	"github.com/TobiSchelling/welfarelens/internal/generate"
	"github.com/TobiSchelling/welfarelens/internal/sources"
)

type stubAnalyzer struct {
	findings   *generate.Findings
	brief      *generate.Brief
	err        error
	block      bool
	analyzed   int
	briefed    int
	audiences  []string
	lastInputs []any
}

func (s *stubAnalyzer) AnalyzeData(ctx context.Context, data any) (*generate.Findings, error) {
	s.analyzed++
	s.lastInputs = append(s.lastInputs, data)
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.findings, nil
}

func (s *stubAnalyzer) GeneratePolicyBrief(ctx context.Context, _ *generate.Findings, audience string) (*generate.Brief, error) {
	s.briefed++
	s.audiences = append(s.audiences, audience)
	if s.err != nil {
		return nil, s.err
	}
	return s.brief, nil
}

func newStubAnalyzer() *stubAnalyzer {
	return &stubAnalyzer{
		findings: &generate.Findings{
			KeyFindings: []string{"a", "b"},
			Trends:      []string{"up"},
		},
		brief: &generate.Brief{
			ExecutiveSummary: "Act now.",
			KeyFindings:      []string{"a"},
			Recommendations: []generate.Recommendation{
				{Action: "Fund clinics", Rationale: "Gap", ImplementationSteps: []string{"Plan"}},
			},
			ResourceRequirements: map[string]any{"funding": "USD 1m"},
			ImpactAssessment:     map[string]any{"risks": "low"},
		},
	}
}

type fixture struct {
	db        *database.DB
	collector *collect.Collector
	analyzer  *stubAnalyzer
	p        *Pipeline
	alice    int64
	bob      int64
}

func newFixture(t *testing.T, limits Limits) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	unicef, err := sources.NewUNICEF(ctx, db, logger)
	require.NoError(t, err)
	who, err := sources.NewWHO(ctx, db, logger)
	require.NoError(t, err)
	collector := collect.NewCollector(sources.NewRegistry(unicef, who), db, logger)

	f := &fixture{db: db, collector: collector, analyzer: newStubAnalyzer()}
	f.p = New(db, collector, f.analyzer, limits, logger)
	f.alice, err = db.InsertUser(ctx, &database.User{Username: "alice", Email: "alice@example.org"})
	require.NoError(t, err)
	f.bob, err = db.InsertUser(ctx, &database.User{Username: "bob", Email: "bob@example.org"})
	require.NoError(t, err)
	return f
}

func analysisRequest() *AnalysisRequest {
	return &AnalysisRequest{
		Sources:   []string{"UNICEF", "WHO"},
		Topics:    []string{"health", "education"},
		Region:    "GHA",
		StartDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) completedAnalysis(t *testing.T, owner int64) *database.Analysis {
	t.Helper()
	a, err := f.p.Analyses.Run(context.Background(), &owner, analysisRequest())
	require.NoError(t, err)
	return a
}

func TestAnalysisRunCompletes(t *testing.T) {
	f := newFixture(t, DefaultLimits())

	a := f.completedAnalysis(t, f.alice)
	assert.Equal(t, database.AnalysisCompleted, a.Status)

	stored, err := f.db.GetAnalysis(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, database.AnalysisCompleted, stored.Status)
	assert.Nil(t, stored.Error)

	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(stored.RawData, &raw))
	require.Len(t, raw, 2)
	for _, key := range []string{"unicef", "who"} {
		require.Contains(t, raw, key)
		assert.NotContains(t, raw[key], "error")
	}

	var results generate.Findings
	require.NoError(t, json.Unmarshal(stored.AnalysisResults, &results))
	assert.NotEmpty(t, results.KeyFindings)
}

func TestAnalysisRunAnonymous(t *testing.T) {
	f := newFixture(t, DefaultLimits())

	a, err := f.p.Analyses.Run(context.Background(), nil, analysisRequest())
	require.NoError(t, err)
	assert.Nil(t, a.UserID)
	assert.Equal(t, database.AnalysisCompleted, a.Status)

	_, err = f.p.Analyses.Get(context.Background(), f.alice, a.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestAnalysisRunFailureIsRecorded(t *testing.T) {
	f := newFixture(t, DefaultLimits())
	f.analyzer.err = errors.New("model unavailable")

	_, err := f.p.Analyses.Run(context.Background(), &f.alice, analysisRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
	assert.Equal(t, "ANALYSIS_ERROR", apperrors.CodeOf(err, ""))

	list, err := f.db.ListAnalysesByUser(context.Background(), f.alice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, database.AnalysisFailed, list[0].Status)
	require.NotNil(t, list[0].Error)
	assert.Contains(t, *list[0].Error, "model unavailable")
	assert.NotEmpty(t, list[0].RawData, "raw data is kept on failure")
}

func TestAnalysisRunWithoutFindingsFails(t *testing.T) {
	f := newFixture(t, DefaultLimits())
	f.analyzer.findings = nil

	_, err := f.p.Analyses.Run(context.Background(), &f.alice, analysisRequest())
	require.Error(t, err)
	assert.Equal(t, "ANALYSIS_ERROR", apperrors.CodeOf(err, ""))

	list, err := f.db.ListAnalysesByUser(context.Background(), f.alice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, database.AnalysisFailed, list[0].Status)
	assert.Equal(t, "analyzer returned no findings", *list[0].Error)
}

// completeFailingStore rejects the completing writes so the failure path
// has to move records to failed instead.
type completeFailingStore struct {
	*database.DB
}

func (completeFailingStore) CompleteAnalysis(context.Context, int64, json.RawMessage, time.Time) error {
	return errors.New("disk full")
}

func (completeFailingStore) CompleteReport(context.Context, int64, json.RawMessage, time.Time) error {
	return errors.New("disk full")
}

func TestCompletionWriteFailureMarksFailed(t *testing.T) {
	f := newFixture(t, DefaultLimits())
	ctx := context.Background()
	a := f.completedAnalysis(t, f.alice)

	p := New(completeFailingStore{f.db}, f.collector, f.analyzer, DefaultLimits(), zap.NewNop())

	_, err := p.Analyses.Run(ctx, &f.alice, analysisRequest())
	require.Error(t, err)
	assert.Equal(t, "ANALYSIS_ERROR", apperrors.CodeOf(err, ""))
	list, err := f.db.ListAnalysesByUser(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, database.AnalysisFailed, list[0].Status)
	assert.Contains(t, *list[0].Error, "disk full")

	_, err = p.Reports.Generate(ctx, f.alice, &ReportRequest{AnalysisID: a.ID, Type: "summary", Format: "json"})
	require.Error(t, err)
	assert.Equal(t, "REPORT_GENERATION_ERROR", apperrors.CodeOf(err, ""))
	reports, err := f.db.ListReportsByUser(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, database.ReportFailed, reports[0].Status)
	assert.Contains(t, reports[0].Metadata["error"], "disk full")
}

func TestAnalysisRunTimeout(t *testing.T) {
	limits := DefaultLimits()
	limits.AnalysisTimeout = 20 * time.Millisecond
	f := newFixture(t, limits)
	f.analyzer.block = true

	_, err := f.p.Analyses.Run(context.Background(), &f.alice, analysisRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	list, err := f.db.ListAnalysesByUser(context.Background(), f.alice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, database.AnalysisFailed, list[0].Status)
	assert.Contains(t, *list[0].Error, "timed out")
}

func TestAnalysisRunPendingCap(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxPendingAnalyses = 2
	f := newFixture(t, limits)
	ctx := context.Background()

	for range 2 {
		_, err := f.db.InsertAnalysis(ctx, &database.Analysis{UserID: &f.alice, Sources: []string{"WHO"}, Topics: []string{"health"}, Region: "GHA"})
		require.NoError(t, err)
	}

	_, err := f.p.Analyses.Run(ctx, &f.alice, analysisRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrRateLimited)
	assert.Equal(t, 0, f.analyzer.analyzed)

	list, err := f.db.ListAnalysesByUser(ctx, f.alice)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// Other users are unaffected.
	_, err = f.p.Analyses.Run(ctx, &f.bob, analysisRequest())
	assert.NoError(t, err)
}

func TestAnalysisOwnership(t *testing.T) {
	f := newFixture(t, DefaultLimits())
	ctx := context.Background()
	a := f.completedAnalysis(t, f.alice)

	got, err := f.p.Analyses.Get(ctx, f.alice, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = f.p.Analyses.Get(ctx, f.bob, a.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.p.Analyses.Get(ctx, f.alice, 9999)
	assert.Equal(t, "ANALYSIS_NOT_FOUND", apperrors.CodeOf(err, ""))

	_, err = f.p.Analyses.ListForUser(ctx, f.bob, f.alice)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	list, err := f.p.Analyses.ListForUser(ctx, f.bob, f.bob)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, f.p.Analyses.Delete(ctx, f.bob, a.ID), apperrors.ErrForbidden)
}

func TestAnalysisDeleteCascades(t *testing.T) {
	f := newFixture(t, DefaultLimits())
	ctx := context.Background()
	a := f.completedAnalysis(t, f.alice)

	r, err := f.p.Reports.Generate(ctx, f.alice, &ReportRequest{AnalysisID: a.ID, Type: "summary", Format: "json"})
	require.NoError(t, err)
	b, err := f.p.Briefs.Create(ctx, f.alice, &BriefRequest{ReportID: r.ID, TargetAudience: "public"})
	require.NoError(t, err)

	require.NoError(t, f.p.Analyses.Delete(ctx, f.alice, a.ID))

	gone, err := f.db.GetReport(ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	brief, err := f.db.GetPolicyBrief(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, brief)
}

func TestReportSummaryContent(t *testing.T) {
	f := newFixture(t, DefaultLimits())
	ctx := context.Background()
	a := f.completedAnalysis(t, f.alice)

	r, err := f.p.Reports.Generate(ctx, f.alice, &ReportRequest{AnalysisID: a.ID, Type: "summary", Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, database.ReportCompleted, r.Status)

	stored, err := f.db.GetReport(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, database.ReportCompleted, stored.Status)
	assert.Equal(t, "summary", stored.Metadata["report_type"])
	assert.Equal(t, "json", stored.Metadata["format"])
	assert.NotEmpty(t, stored.Metadata["requested_at"])

	var content struct {
		Summary  []string       `json:"summary"`
		Details  map[string]any `json:"details"`
		Metadata map[string]any `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(stored.Content, &content))
	assert.Equal(t, []string{"a", "b"}, content.Summary)
	assert.Equal(t, []any{"up"}, content.Details["trends"])
	assert.Equal(t, float64(a.ID), content.Metadata["analysis_id"])
	assert.Equal(t, []any{"UNICEF", "WHO"}, content.Metadata["data_sources"])
	assert.Equal(t, []any{"health", "education"}, content.Metadata["topics"])
}

func TestReportSummaryWithoutFindings(t *testing.T) {
	f := newFixture(t, DefaultLimits())
	ctx := context.Background()

	id, err := f.db.InsertAnalysis(ctx, &database.Analysis{UserID: &f.alice, Sources: []string{"WHO"}, Topics: []string{"health"}, Region: "GHA"})
	require.NoError(t, err)
	require.NoError(t, f.db.CompleteAnalysis(ctx, id, json.RawMessage(`{"trends":[]}`), time.Now()))

	r, err := f.p.Reports.Generate(ctx, f.alice, &ReportRequest{AnalysisID: id, Type: "full_report", Format: "html"})
	require.NoError(t, err)

	var content map[string]any
	require.NoError(t, json.Unmarshal(r.Content, &content))
	assert.Equal(t, []any{}, content["summary"])
}

func TestReportPolicyBriefContent(t *testing.T) {
	f := newFixture(t, DefaultLimits())
	a := f.completedAnalysis(t, f.alice)

	r, err := f.p.Reports.Generate(context.Background(), f.alice, &ReportRequest{AnalysisID: a.ID, Type: "policy_brief", Format: "pdf"})
	require.NoError(t, err)

	var content generate.Brief
	require.NoError(t, json.Unmarshal(r.Content, &content))
	assert.Equal(t, "Act now.", content.ExecutiveSummary)
	assert.Equal(t, []string{"policymakers"}, f.analyzer.audiences)
}

func TestReportPreconditions(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxGeneratingReports = 1
	f := newFixture(t, limits)
	ctx := context.Background()
	a := f.completedAnalysis(t, f.alice)

	pendingID, err := f.db.InsertAnalysis(ctx, &database.Analysis{UserID: &f.alice, Sources: []string{"WHO"}, Topics: []string{"health"}, Region: "GHA"})
	require.NoError(t, err)

	_, err = f.p.Reports.Generate(ctx, f.alice, &ReportRequest{AnalysisID: 9999, Type: "summary", Format: "json"})
	assert.Equal(t, "ANALYSIS_NOT_FOUND", apperrors.CodeOf(err, ""))

	_, err = f.p.Reports.Generate(ctx, f.bob, &ReportRequest{AnalysisID: a.ID, Type: "summary", Format: "json"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.p.Reports.Generate(ctx, f.alice, &ReportRequest{AnalysisID: pendingID, Type: "summary", Format: "json"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.db.InsertReport(ctx, &database.Report{UserID: f.alice, AnalysisID: a.ID, Type: "summary", Format: "json"})
	require.NoError(t, err)
	_, err = f.p.Reports.Generate(ctx, f.alice, &ReportRequest{AnalysisID: a.ID, Type: "summary", Format: "json"})
	assert.ErrorIs(t, err, apperrors.ErrRateLimited)

	reports, err := f.db.ListReportsByUser(ctx, f.alice)
	require.NoError(t, err)
	assert.Len(t, reports, 1, "failed preconditions must not create reports")
	reports, err = f.db.ListReportsByUser(ctx, f.bob)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestReportGenerationFailure(t *testing.T) {
	f := newFixture(t, DefaultLimits())
	ctx := context.Background()
	a := f.completedAnalysis(t, f.alice)
	f.analyzer.err = errors.New("quota exceeded")

	_, err := f.p.Reports.Generate(ctx, f.alice, &ReportRequest{AnalysisID: a.ID, Type: "policy_brief", Format: "json"})
	require.Error(t, err)
	assert.Equal(t, "REPORT_GENERATION_ERROR", apperrors.CodeOf(err, ""))

	reports, err := f.db.ListReportsByUser(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, database.ReportFailed, reports[0].Status)
	assert.Equal(t, "quota exceeded", reports[0].Metadata["error"])
	assert.Equal(t, "policy_brief", reports[0].Metadata["report_type"])
}

func TestReportUpdateMergesMetadata(t *testing.T) {
	f := newFixture(t, DefaultLimits())
	ctx := context.Background()
	a := f.completedAnalysis(t, f.alice)
	r, err := f.p.Reports.Generate(ctx, f.alice, &ReportRequest{AnalysisID: a.ID, Type: "summary", Format: "json"})
	require.NoError(t, err)

	updated, err := f.p.Reports.Update(ctx, f.alice, r.ID, &ReportUpdate{
		Format:   "html",
		Metadata: map[string]any{"reviewed_by": "alice"},
	})
	require.NoError(t, err)
	assert.Equal(t, "html", updated.Format)
	assert.Equal(t, "summary", updated.Type)

	stored, err := f.db.GetReport(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "html", stored.Format)
	assert.Equal(t, "alice", stored.Metadata["reviewed_by"])
	assert.Equal(t, "summary", stored.Metadata["report_type"])

	_, err = f.p.Reports.Update(ctx, f.bob, r.ID, &ReportUpdate{Format: "pdf"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestReportRenderAndDelete(t *testing.T) {
	f := newFixture(t, DefaultLimits())
	ctx := context.Background()
	a := f.completedAnalysis(t, f.alice)
	r, err := f.p.Reports.Generate(ctx, f.alice, &ReportRequest{AnalysisID: a.ID, Type: "summary", Format: "html"})
	require.NoError(t, err)

	doc, err := f.p.Reports.Render(ctx, f.alice, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=utf-8", doc.ContentType)
	assert.Contains(t, string(doc.Body), "<li>a</li>")

	_, err = f.p.Reports.Render(ctx, f.bob, r.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	list, err := f.p.Reports.ListForUser(ctx, f.alice, f.alice)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, f.p.Reports.Delete(ctx, f.alice, r.ID))
	_, err = f.p.Reports.Get(ctx, f.alice, r.ID)
	assert.Equal(t, "REPORT_NOT_FOUND", apperrors.CodeOf(err, ""))
}

func TestReportPolicyBriefWithoutBriefFails(t *testing.T) {
	f := newFixture(t, DefaultLimits())
	ctx := context.Background()
	a := f.completedAnalysis(t, f.alice)
	f.analyzer.brief = nil

	_, err := f.p.Reports.Generate(ctx, f.alice, &ReportRequest{AnalysisID: a.ID, Type: "policy_brief", Format: "json"})
	require.Error(t, err)
	assert.Equal(t, "REPORT_GENERATION_ERROR", apperrors.CodeOf(err, ""))

	reports, err := f.db.ListReportsByUser(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, database.ReportFailed, reports[0].Status)
	assert.Equal(t, "analyzer returned no policy brief", reports[0].Metadata["error"])

	r, err := f.p.Reports.Generate(ctx, f.alice, &ReportRequest{AnalysisID: a.ID, Type: "summary", Format: "json"})
	require.NoError(t, err)
	_, err = f.p.Briefs.Create(ctx, f.alice, &BriefRequest{ReportID: r.ID, TargetAudience: "public"})
	assert.Equal(t, "GENERATION_ERROR", apperrors.CodeOf(err, ""))
}

func TestBriefCreateIsUnique(t *testing.T) {
	f := newFixture(t, DefaultLimits())
	ctx := context.Background()
	a := f.completedAnalysis(t, f.alice)
	r, err := f.p.Reports.Generate(ctx, f.alice, &ReportRequest{AnalysisID: a.ID, Type: "summary", Format: "json"})
	require.NoError(t, err)

	b, err := f.p.Briefs.Create(ctx, f.alice, &BriefRequest{ReportID: r.ID, TargetAudience: "stakeholders"})
	require.NoError(t, err)
	assert.Equal(t, "Act now.", b.ExecutiveSummary)
	assert.Equal(t, "stakeholders", b.TargetAudience)
	require.Len(t, b.Recommendations, 1)
	assert.Equal(t, "Fund clinics", b.Recommendations[0].Action)

	f.analyzer.brief = &generate.Brief{ExecutiveSummary: "Something else"}
	_, err = f.p.Briefs.Create(ctx, f.alice, &BriefRequest{ReportID: r.ID, TargetAudience: "public"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, "BRIEF_EXISTS", apperrors.CodeOf(err, ""))
	assert.Equal(t, 1, f.analyzer.briefed, "conflict is detected before generation")

	stored, err := f.p.Briefs.GetForReport(ctx, f.alice, r.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, stored.ID)
	assert.Equal(t, "Act now.", stored.ExecutiveSummary)
	assert.Equal(t, "stakeholders", stored.TargetAudience)
}

func TestBriefCreateChecks(t *testing.T) {
	f := newFixture(t, DefaultLimits())
	ctx := context.Background()
	a := f.completedAnalysis(t, f.alice)
	r, err := f.p.Reports.Generate(ctx, f.alice, &ReportRequest{AnalysisID: a.ID, Type: "summary", Format: "json"})
	require.NoError(t, err)

	_, err = f.p.Briefs.Create(ctx, f.alice, &BriefRequest{ReportID: 9999, TargetAudience: "public"})
	assert.Equal(t, "REPORT_NOT_FOUND", apperrors.CodeOf(err, ""))

	_, err = f.p.Briefs.Create(ctx, f.bob, &BriefRequest{ReportID: r.ID, TargetAudience: "public"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	f.analyzer.err = errors.New("model down")
	_, err = f.p.Briefs.Create(ctx, f.alice, &BriefRequest{ReportID: r.ID, TargetAudience: "public"})
	assert.Equal(t, "GENERATION_ERROR", apperrors.CodeOf(err, ""))

	_, err = f.p.Briefs.GetForReport(ctx, f.alice, r.ID)
	assert.Equal(t, "BRIEF_NOT_FOUND", apperrors.CodeOf(err, ""))
}

func TestBriefUpdateMerges(t *testing.T) {
	f := newFixture(t, DefaultLimits())
	ctx := context.Background()
	a := f.completedAnalysis(t, f.alice)
	r, err := f.p.Reports.Generate(ctx, f.alice, &ReportRequest{AnalysisID: a.ID, Type: "summary", Format: "json"})
	require.NoError(t, err)
	b, err := f.p.Briefs.Create(ctx, f.alice, &BriefRequest{ReportID: r.ID, TargetAudience: "policymakers"})
	require.NoError(t, err)

	_, err = f.p.Briefs.Update(ctx, f.alice, b.ID, &BriefUpdate{
		TargetAudience:       "technical",
		ResourceRequirements: map[string]any{"staffing": "2 analysts"},
	})
	require.NoError(t, err)

	stored, err := f.p.Briefs.Get(ctx, f.alice, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "technical", stored.TargetAudience)
	assert.Equal(t, map[string]any{"funding": "USD 1m", "staffing": "2 analysts"}, stored.ResourceRequirements)
	assert.Equal(t, map[string]any{"risks": "low"}, stored.ImpactAssessment)

	_, err = f.p.Briefs.Get(ctx, f.bob, b.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.p.Briefs.Get(ctx, f.alice, 9999)
	assert.Equal(t, "BRIEF_NOT_FOUND", apperrors.CodeOf(err, ""))
}

func TestLimitsFromConfigDefaults(t *testing.T) {
	assert.Equal(t, 50, DefaultLimits().MaxPendingAnalyses)
	assert.Equal(t, 5, DefaultLimits().MaxGeneratingReports)
	assert.Equal(t, 30*time.Second, DefaultLimits().AnalysisTimeout)
}
