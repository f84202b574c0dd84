package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/quyet5603/DATN-sub002/internal/config"
	"github.com/quyet5603/DATN-sub002/internal/domain"
	"github.com/quyet5603/DATN-sub002/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg   config.Config
	Match *usecase.MatchService
	CVs   *usecase.CVService
	Jobs  domain.JobRepository
}

// NewServer constructs the HTTP server with all handlers wired.
func NewServer(cfg config.Config, match *usecase.MatchService, cvs *usecase.CVService, jobs domain.JobRepository) *Server {
	return &Server{Cfg: cfg, Match: match, CVs: cvs, Jobs: jobs}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// MountRoutes registers the versioned API routes.
func (s *Server) MountRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/candidates/{candidateID}/jobs/{jobID}/match-score", s.handleMatchScore)
		r.Get("/candidates/{candidateID}/recommended-jobs", s.handleRecommendedJobs)
		r.Post("/candidates/{candidateID}/cvs", s.handleUploadCV)
		r.Put("/candidates/{candidateID}/cvs/{cvID}/default", s.handleSetDefaultCV)
		r.Delete("/candidates/{candidateID}/cvs/{cvID}", s.handleDeleteCV)
		r.Get("/cvs/{cvID}/rubric-score", s.handleGetRubric)
		r.Post("/cvs/{cvID}/rubric-score", s.handleRecomputeRubric)
	})
}

type subScorePayload struct {
	Score  float64 `json:"score"`
	Status string  `json:"status"`
	Detail string  `json:"detail,omitempty"`
}

type matchScorePayload struct {
	MatchScore  float64         `json:"matchScore"`
	HasCV       bool            `json:"hasCV"`
	FromCache   bool            `json:"fromCache"`
	Label       string          `json:"label"`
	Emoji       string          `json:"emoji"`
	Color       string          `json:"color"`
	Location    subScorePayload `json:"location"`
	Experience  subScorePayload `json:"experience"`
	Skills      subScorePayload `json:"skills"`
	Education   subScorePayload `json:"education"`
	Reasons     []string        `json:"reasons,omitempty"`
	RedFlags    []string        `json:"redFlags,omitempty"`
	Suggestions []string        `json:"suggestions,omitempty"`
	Analysis    string          `json:"analysis,omitempty"`
	ErrorTag    string          `json:"errorTag,omitempty"`
	Message     string          `json:"message,omitempty"`
}

func toSubPayload(s domain.SubScore) subScorePayload {
	return subScorePayload{Score: s.Score, Status: s.Status, Detail: s.Detail}
}

// handleMatchScore answers "how well does this candidate fit this job".
// Degraded outcomes (no CV, AI down) are 200 responses with a zero or
// neutral score; only an unknown job or a broken store is an error.
func (s *Server) handleMatchScore(w http.ResponseWriter, r *http.Request) {
	candidateID := chi.URLParam(r, "candidateID")
	jobID := chi.URLParam(r, "jobID")
	if candidateID == "" || jobID == "" {
		writeError(w, r, fmt.Errorf("%w: candidate and job ids are required", domain.ErrInvalidArgument), nil)
		return
	}

	job, err := s.Jobs.Get(r.Context(), jobID)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	out, err := s.Match.ScoreOne(r.Context(), candidateID, job)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, matchScorePayload{
		MatchScore:  out.Overall,
		HasCV:       out.HasCV,
		FromCache:   out.FromCache,
		Label:       out.Label,
		Emoji:       out.Emoji,
		Color:       out.Color,
		Location:    toSubPayload(out.Location),
		Experience:  toSubPayload(out.Experience),
		Skills:      toSubPayload(out.Skills),
		Education:   toSubPayload(out.Education),
		Reasons:     out.Reasons,
		RedFlags:    out.RedFlags,
		Suggestions: out.Suggestions,
		Analysis:    out.Analysis,
		ErrorTag:    out.ErrorTag,
		Message:     out.Message,
	})
}

type rankedJobPayload struct {
	JobID     string  `json:"jobId"`
	Title     string  `json:"title"`
	Score     float64 `json:"score"`
	Label     string  `json:"label,omitempty"`
	FromCache bool    `json:"fromCache,omitempty"`
	ErrorTag  string  `json:"errorTag,omitempty"`
}

type rankedJobsResponse struct {
	Personalized bool               `json:"personalized"`
	Jobs         []rankedJobPayload `json:"jobs"`
}

func (s *Server) handleRecommendedJobs(w http.ResponseWriter, r *http.Request) {
	candidateID := chi.URLParam(r, "candidateID")
	if candidateID == "" {
		writeError(w, r, fmt.Errorf("%w: candidate id is required", domain.ErrInvalidArgument), nil)
		return
	}

	jobs, err := s.Jobs.ListOpen(r.Context(), s.Cfg.MatchEvalLimit*2)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	ranked, personalized, err := s.Match.RankJobs(r.Context(), candidateID, jobs)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}

	resp := rankedJobsResponse{Personalized: personalized, Jobs: make([]rankedJobPayload, 0, len(ranked))}
	for _, entry := range ranked {
		resp.Jobs = append(resp.Jobs, rankedJobPayload{
			JobID:     entry.Job.ID,
			Title:     entry.Job.Title,
			Score:     entry.Score,
			Label:     entry.Label,
			FromCache: entry.FromCache,
			ErrorTag:  entry.ErrorTag,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type uploadCVResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefault"`
}

type uploadCVForm struct {
	FileName string `validate:"required,max=255"`
}

func (s *Server) handleUploadCV(w http.ResponseWriter, r *http.Request) {
	candidateID := chi.URLParam(r, "candidateID")
	maxBytes := int64(s.Cfg.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1024)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid multipart form: %v", domain.ErrInvalidArgument, err), nil)
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: missing file field", domain.ErrInvalidArgument), nil)
		return
	}
	defer func() { _ = file.Close() }()

	if err := getValidator().Struct(uploadCVForm{FileName: hdr.Filename}); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: unreadable upload", domain.ErrInvalidArgument), nil)
		return
	}

	cv, err := s.CVs.Upload(r.Context(), candidateID, hdr.Filename, data)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, uploadCVResponse{ID: cv.ID, Name: cv.Name, IsDefault: cv.IsDefault})
}

func (s *Server) handleSetDefaultCV(w http.ResponseWriter, r *http.Request) {
	candidateID := chi.URLParam(r, "candidateID")
	cvID := chi.URLParam(r, "cvID")
	if err := s.CVs.SetDefault(r.Context(), candidateID, cvID); err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleDeleteCV(w http.ResponseWriter, r *http.Request) {
	candidateID := chi.URLParam(r, "candidateID")
	cvID := chi.URLParam(r, "cvID")
	if err := s.CVs.Delete(r.Context(), candidateID, cvID); err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type rubricResponse struct {
	TotalScore      float64                `json:"totalScore"`
	Grade           string                 `json:"grade"`
	Breakdown       domain.RubricBreakdown `json:"breakdown"`
	Recommendations []string               `json:"recommendations"`
}

func (s *Server) handleGetRubric(w http.ResponseWriter, r *http.Request) {
	score, err := s.CVs.Rubric(r.Context(), chi.URLParam(r, "cvID"))
	if err != nil {
		s.writeRubricError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rubricResponse{
		TotalScore:      score.Total,
		Grade:           score.Grade,
		Breakdown:       score.Breakdown,
		Recommendations: score.Recommendations,
	})
}

func (s *Server) handleRecomputeRubric(w http.ResponseWriter, r *http.Request) {
	score, err := s.CVs.RecomputeRubric(r.Context(), chi.URLParam(r, "cvID"))
	if err != nil {
		s.writeRubricError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rubricResponse{
		TotalScore:      score.Total,
		Grade:           score.Grade,
		Breakdown:       score.Breakdown,
		Recommendations: score.Recommendations,
	})
}

func (s *Server) writeRubricError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrConflict) {
		writeError(w, r, fmt.Errorf("%w: analysis still pending, try again later", domain.ErrConflict), nil)
		return
	}
	writeError(w, r, err, nil)
}
