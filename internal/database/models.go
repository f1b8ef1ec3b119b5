package database

import (
	"encoding/json"
	"time"
)

const (
	SourceActive   = "active"
	SourceInactive = "inactive"
	SourceError    = "error"

	AnalysisPending   = "pending"
	AnalysisCompleted = "completed"
	AnalysisFailed    = "failed"

	ReportPending    = "pending"
	ReportGenerating = "generating"
	ReportCompleted  = "completed"
	ReportFailed     = "failed"
)

// User is an account that owns analyses and reports.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Organization *string    `json:"organization,omitempty"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// DataSource is the registry row for one indicator provider.
type DataSource struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	URL       string         `json:"url"`
	Status    string         `json:"status"`
	LastFetch *time.Time     `json:"last_fetch"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Analysis is one aggregation plus generative analysis run.
type Analysis struct {
	ID              int64           `json:"id"`
	UserID          *int64          `json:"user_id"`
	Status          string          `json:"status"`
	Sources         []string        `json:"sources"`
	Topics          []string        `json:"topics"`
	Region          string          `json:"region"`
	DateRangeStart  *time.Time      `json:"date_range_start"`
	DateRangeEnd    *time.Time      `json:"date_range_end"`
	RawData         json.RawMessage `json:"raw_data,omitempty"`
	AnalysisResults json.RawMessage `json:"analysis_results,omitempty"`
	Error           *string         `json:"error,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Report is a rendered view of a completed analysis.
type Report struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"user_id"`
	AnalysisID int64           `json:"analysis_id"`
	Type       string          `json:"type"`
	Format     string          `json:"format"`
	Status     string          `json:"status"`
	Content    json.RawMessage `json:"content,omitempty"`
	Metadata   map[string]any  `json:"report_metadata"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Recommendation is a single policy action inside a brief.
type Recommendation struct {
	Action              string   `json:"action"`
	Rationale           string   `json:"rationale"`
	ImplementationSteps []string `json:"implementation_steps,omitempty"`
}

// PolicyBrief is the audience-targeted brief attached to a report.
type PolicyBrief struct {
	ID                   int64            `json:"id"`
	ReportID             int64            `json:"report_id"`
	ExecutiveSummary     string           `json:"executive_summary"`
	KeyFindings          []string         `json:"key_findings"`
	Recommendations      []Recommendation `json:"recommendations"`
	TargetAudience       string           `json:"target_audience"`
	ResourceRequirements map[string]any   `json:"resource_requirements"`
	ImpactAssessment     map[string]any   `json:"impact_assessment"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// Stats contains aggregate database statistics.
type Stats struct {
	Users             int
	DataSources       int
	ActiveSources     int
	Analyses          int
	PendingAnalyses   int
	FailedAnalyses    int
	Reports           int
	GeneratingReports int
	PolicyBriefs      int
}
