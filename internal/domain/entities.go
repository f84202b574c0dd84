// Package domain holds the core entities and ports of the matching service.
package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")

	// CV resolution outcomes. These are distinct success-adjacent states,
	// not system errors: callers map them to "insufficient profile data".
	ErrNoCV         = errors.New("no cv available")
	ErrCVTooShort   = errors.New("cv text too short")
	ErrCVUnreadable = errors.New("cv unreadable")

	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUpstreamTimeout     = errors.New("upstream timeout")
	ErrUpstreamRateLimit   = errors.New("upstream rate limit")
	ErrUpstreamError       = errors.New("upstream error")
	ErrParseFailure        = errors.New("model output parse failure")
)

// CandidateProfile is a candidate identity plus legacy CV fields.
// Older profiles carry CV text or a file reference directly; these are
// lower-priority sources than CVRecord entries.
type CandidateProfile struct {
	ID       string
	FullName string
	Email    string
	// Legacy direct CV fields, consulted only when no CVRecord applies.
	LegacyCVFilePath string
	LegacyCVText     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CVAnalysis holds the free-form analysis fields of a CV. All fields are
// empty until the asynchronous analysis pipeline fills them.
type CVAnalysis struct {
	Skills     []string `json:"skills"`
	Experience string   `json:"experience"`
	Education  string   `json:"education"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

// Empty reports whether no analysis field has been populated.
func (a CVAnalysis) Empty() bool {
	return len(a.Skills) == 0 && a.Experience == "" && a.Education == "" &&
		len(a.Strengths) == 0 && len(a.Weaknesses) == 0
}

// CVRecord is one stored CV owned by a candidate.
// Invariant: at most one active record per candidate has IsDefault set;
// SetDefault must atomically clear the previous default.
// Records are soft-deleted: Active=false, never removed.
type CVRecord struct {
	ID            string
	CandidateID   string
	Name          string
	FilePath      string
	ExtractedText string
	Analysis      CVAnalysis
	Score         *float64
	Active        bool
	IsDefault     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// JobPosting is read-only input to the matching pipeline.
type JobPosting struct {
	ID                 string
	EmployerID         string
	Title              string
	Location           string
	Description        string
	MinExperienceYears int
	RequiredSkills     []string
	CreatedAt          time.Time
}

// SubScore is one scored dimension of a match.
type SubScore struct {
	Score  float64 `json:"score"`
	Status string  `json:"status"`
	Detail string  `json:"detail"`
}

// Sub-score status values.
const (
	SubScoreMatched    = "matched"
	SubScorePartial    = "partial"
	SubScoreNotMatched = "not_matched"
	SubScoreUnknown    = "unknown"
)

// MatchResult is the scored outcome for one (candidate, job) pair.
// Invariant: Overall in [0,100].
type MatchResult struct {
	CandidateID string
	JobID       string
	Overall     float64
	Location    SubScore
	Experience  SubScore
	Skills      SubScore
	Education   SubScore
	Reasons     []string
	RedFlags    []string
	Suggestions []string
	Analysis    string
	Label       string
	Emoji       string
	Color       string
	FromCache   bool
	ErrorTag    string
	ComputedAt  time.Time
}

// RubricBreakdown lists the component scores of a rubric evaluation.
type RubricBreakdown struct {
	Skills       float64 `json:"skills"`
	Experience   float64 `json:"experience"`
	Education    float64 `json:"education"`
	Strengths    float64 `json:"strengths"`
	Completeness float64 `json:"completeness"`
	Penalty      float64 `json:"penalty"`
}

// RubricScore is the deterministic, model-free CV quality score.
// Invariant: Total in [0,100].
type RubricScore struct {
	Total           float64         `json:"total_score"`
	Grade           string          `json:"grade"`
	Breakdown       RubricBreakdown `json:"breakdown"`
	Recommendations []string        `json:"recommendations"`
}

// ResumeAnalysis is the payload returned by the resume-extraction service.
type ResumeAnalysis struct {
	Score       float64    `json:"score"`
	Analysis    CVAnalysis `json:"analysis"`
	Suggestions []string   `json:"suggestions"`
	RawText     string     `json:"raw_text"`
}

// Repositories (ports)

type CandidateRepository interface {
	Get(ctx Context, id string) (CandidateProfile, error)
}

type CVRepository interface {
	Get(ctx Context, id string) (CVRecord, error)
	Create(ctx Context, cv CVRecord) (string, error)
	// DefaultForCandidate returns the active default CV or ErrNotFound.
	DefaultForCandidate(ctx Context, candidateID string) (CVRecord, error)
	// LatestForCandidate returns the most-recently-updated active CV or ErrNotFound.
	LatestForCandidate(ctx Context, candidateID string) (CVRecord, error)
	CountActive(ctx Context, candidateID string) (int64, error)
	// SetDefault marks cvID default and clears the previous default in one transaction.
	SetDefault(ctx Context, candidateID, cvID string) error
	// SoftDelete deactivates the CV; the candidate id scopes ownership.
	SoftDelete(ctx Context, candidateID, cvID string) error
	// UpdateAnalysis stores analysis output; score is nil when no
	// standalone quality score was computed.
	UpdateAnalysis(ctx Context, id string, analysis CVAnalysis, score *float64) error
	UpdateExtractedText(ctx Context, id, text string) error
}

type JobRepository interface {
	Get(ctx Context, id string) (JobPosting, error)
	ListOpen(ctx Context, limit int) ([]JobPosting, error)
}

// MatchRepository persists match results on the candidate/job association
// record. A stored result with Overall > 0 is served as a cache hit.
type MatchRepository interface {
	GetMatch(ctx Context, candidateID, jobID string) (MatchResult, error)
	PutMatch(ctx Context, m MatchResult) error
}

// FileStore abstracts the backing store for uploaded CV files.
type FileStore interface {
	Exists(ctx Context, path string) bool
	Read(ctx Context, path string) ([]byte, error)
	Write(ctx Context, path string, data []byte) error
}

// CompletionClient (port) wraps the external LLM text-completion service.
type CompletionClient interface {
	// Complete sends one prompt and returns the raw model text.
	// Single attempt; errors are classified with the upstream sentinels.
	Complete(ctx Context, prompt string) (string, error)
}

// ResumeAnalyzer (port) wraps the resume-extraction microservice.
type ResumeAnalyzer interface {
	ExtractText(ctx Context, fileName string, data []byte) (string, error)
	Analyze(ctx Context, fileName string, data []byte, jobDescription string) (ResumeAnalysis, error)
}

// Queue (port)

type AnalyzeCVPayload struct {
	TaskID      string `json:"task_id"`
	CVID        string `json:"cv_id"`
	CandidateID string `json:"candidate_id"`
}

type Queue interface {
	EnqueueAnalyzeCV(ctx Context, payload AnalyzeCVPayload) (string, error)
}

// Context is an alias so usecases and adapters share one context type.
type Context = context.Context
