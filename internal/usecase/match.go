package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quyet5603/DATN-sub002/internal/adapter/ai"
	"github.com/quyet5603/DATN-sub002/internal/adapter/observability"
	"github.com/quyet5603/DATN-sub002/internal/domain"
)

// Error tags carried by degraded match results.
const (
	TagServiceUnavailable = "service-unavailable"
	TagGenericFailure     = "generic-failure"
)

// CacheFront is an optional fast-path cache in front of the persistent
// match store. Implementations return domain.ErrNotFound on miss.
type CacheFront interface {
	Get(ctx domain.Context, candidateID, jobID string) (domain.MatchResult, error)
	Put(ctx domain.Context, m domain.MatchResult) error
}

// ScoreOutcome is the full answer of a single scoring request. HasCV is
// false for the "no usable CV" outcome, which is a success state with a
// zero score, not an error.
type ScoreOutcome struct {
	domain.MatchResult
	HasCV   bool
	Message string
}

// RankedJob is one entry of a ranked job list.
type RankedJob struct {
	Job       domain.JobPosting
	Score     float64
	Label     string
	ErrorTag  string
	FromCache bool
}

// MatchService orchestrates CV-versus-job scoring.
type MatchService struct {
	resolver *Resolver
	prompts  *ai.PromptBuilder
	gateway  domain.CompletionClient
	matches  domain.MatchRepository
	front    CacheFront

	evalLimit int
	topK      int
}

// NewMatchService constructs the orchestrator. front may be nil when no
// fast-path cache is deployed.
func NewMatchService(resolver *Resolver, prompts *ai.PromptBuilder, gateway domain.CompletionClient,
	matches domain.MatchRepository, front CacheFront, evalLimit, topK int) *MatchService {
	if evalLimit <= 0 {
		evalLimit = 30
	}
	if topK <= 0 {
		topK = 10
	}
	return &MatchService{
		resolver:  resolver,
		prompts:   prompts,
		gateway:   gateway,
		matches:   matches,
		front:     front,
		evalLimit: evalLimit,
		topK:      topK,
	}
}

// ScoreOne scores one candidate against one job. The returned outcome
// always carries a score: resolution and gateway failures degrade to
// zero-score results instead of propagating, so callers can always
// render a payload.
func (s *MatchService) ScoreOne(ctx domain.Context, candidateID string, job domain.JobPosting) (ScoreOutcome, error) {
	if candidateID == "" || job.ID == "" {
		return ScoreOutcome{}, fmt.Errorf("op=match.score_one: %w: empty id", domain.ErrInvalidArgument)
	}

	resolved, err := s.resolver.Resolve(ctx, candidateID)
	if err != nil {
		if isNoCV(err) {
			observability.MatchRequestsTotal.WithLabelValues("no_cv").Inc()
			return s.noCVOutcome(candidateID, job.ID, err), nil
		}
		return ScoreOutcome{}, err
	}

	if cached, ok := s.cachedResult(ctx, candidateID, job.ID); ok {
		observability.MatchRequestsTotal.WithLabelValues("cache_hit").Inc()
		return ScoreOutcome{MatchResult: cached, HasCV: true}, nil
	}

	m := s.evaluate(ctx, resolved.Text, candidateID, job)
	return ScoreOutcome{MatchResult: m, HasCV: true}, nil
}

// RankJobs scores the candidate against a list of jobs and returns the
// top entries sorted by score. personalized is false when no usable CV
// exists; every entry then carries a zero score.
func (s *MatchService) RankJobs(ctx domain.Context, candidateID string, jobs []domain.JobPosting) (ranked []RankedJob, personalized bool, err error) {
	if candidateID == "" {
		return nil, false, fmt.Errorf("op=match.rank_jobs: %w: empty candidate id", domain.ErrInvalidArgument)
	}

	resolved, rerr := s.resolver.Resolve(ctx, candidateID)
	if rerr != nil {
		if !isNoCV(rerr) {
			return nil, false, rerr
		}
		out := make([]RankedJob, 0, min(len(jobs), s.topK))
		for _, job := range jobs {
			if len(out) == s.topK {
				break
			}
			out = append(out, RankedJob{Job: job})
		}
		return out, false, nil
	}

	evalCount := min(len(jobs), s.evalLimit)
	entries := make([]RankedJob, len(jobs))

	// Fan out over the evaluation prefix. Each branch is failure
	// isolated: evaluate never returns an error, it degrades.
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < evalCount; i++ {
		g.Go(func() error {
			job := jobs[i]
			if cached, ok := s.cachedResult(gctx, candidateID, job.ID); ok {
				entries[i] = RankedJob{Job: job, Score: cached.Overall, Label: cached.Label, FromCache: true}
				return nil
			}
			m := s.evaluate(gctx, resolved.Text, candidateID, job)
			entries[i] = RankedJob{Job: job, Score: m.Overall, Label: m.Label, ErrorTag: m.ErrorTag}
			return nil
		})
	}
	_ = g.Wait()

	// Pass-through remainder: zero score, no model call.
	for i := evalCount; i < len(jobs); i++ {
		entries[i] = RankedJob{Job: jobs[i]}
	}

	sort.SliceStable(entries, func(a, b int) bool { return entries[a].Score > entries[b].Score })
	if len(entries) > s.topK {
		entries = entries[:s.topK]
	}
	return entries, true, nil
}

// evaluate runs prompt → gateway → extract → normalize → persist for
// one (candidate, job) pair with already-resolved CV text.
func (s *MatchService) evaluate(ctx domain.Context, candidateText, candidateID string, job domain.JobPosting) domain.MatchResult {
	prompt := s.prompts.ScoringPrompt(candidateText, job)

	raw, err := s.gateway.Complete(ctx, prompt)
	if err != nil {
		tag := TagGenericFailure
		if errors.Is(err, domain.ErrUpstreamUnavailable) || errors.Is(err, domain.ErrUpstreamTimeout) {
			tag = TagServiceUnavailable
		}
		observability.MatchRequestsTotal.WithLabelValues("gateway_failed").Inc()
		slog.Error("completion failed, returning degraded result",
			slog.String("candidate_id", candidateID),
			slog.String("job_id", job.ID),
			slog.String("tag", tag),
			slog.Any("error", err))
		m := domain.MatchResult{
			CandidateID: candidateID,
			JobID:       job.ID,
			ErrorTag:    tag,
			ComputedAt:  time.Now().UTC(),
		}
		applyPresentation(&m)
		return m
	}

	pm, parseErr := ai.ExtractMatch(raw, s.prompts.Schema())
	if parseErr != nil {
		observability.MatchRequestsTotal.WithLabelValues("parse_failure").Inc()
		slog.Warn("model output unparsable, using neutral result",
			slog.String("candidate_id", candidateID),
			slog.String("job_id", job.ID),
			slog.Any("error", parseErr))
	} else {
		observability.MatchRequestsTotal.WithLabelValues("fresh").Inc()
	}

	m := NormalizeMatch(s.prompts.Schema(), pm, parseErr)
	m.CandidateID = candidateID
	m.JobID = job.ID
	observability.MatchScoreHistogram.Observe(m.Overall)

	if err := s.matches.PutMatch(ctx, m); err != nil {
		slog.Error("match result persist failed",
			slog.String("candidate_id", candidateID),
			slog.String("job_id", job.ID),
			slog.Any("error", err))
	}
	if s.front != nil {
		if err := s.front.Put(ctx, m); err != nil {
			slog.Warn("cache front put failed", slog.Any("error", err))
		}
	}
	return m
}

// cachedResult checks the fast front first, then the persistent store.
// Only results with a positive score count as hits: a stored zero means
// "not yet computed".
func (s *MatchService) cachedResult(ctx domain.Context, candidateID, jobID string) (domain.MatchResult, bool) {
	if s.front != nil {
		if m, err := s.front.Get(ctx, candidateID, jobID); err == nil {
			m.FromCache = true
			return m, true
		}
	}
	m, err := s.matches.GetMatch(ctx, candidateID, jobID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Warn("match cache read failed", slog.Any("error", err))
		}
		return domain.MatchResult{}, false
	}
	if m.Overall <= 0 {
		return domain.MatchResult{}, false
	}
	m.FromCache = true
	if s.front != nil {
		if err := s.front.Put(ctx, m); err != nil {
			slog.Warn("cache front backfill failed", slog.Any("error", err))
		}
	}
	return m, true
}

// noCVOutcome renders the "no usable CV" success state.
func (s *MatchService) noCVOutcome(candidateID, jobID string, cause error) ScoreOutcome {
	msg := "No CV on file; upload a CV to get a personalized match score."
	switch {
	case errors.Is(cause, domain.ErrCVTooShort):
		msg = "The CV on file is too short to analyze; upload a more complete CV."
	case errors.Is(cause, domain.ErrCVUnreadable):
		msg = "The CV on file could not be read; upload it again in PDF or text form."
	}
	m := domain.MatchResult{
		CandidateID: candidateID,
		JobID:       jobID,
		ComputedAt:  time.Now().UTC(),
	}
	applyPresentation(&m)
	return ScoreOutcome{MatchResult: m, HasCV: false, Message: msg}
}

func isNoCV(err error) bool {
	return errors.Is(err, domain.ErrNoCV) ||
		errors.Is(err, domain.ErrCVTooShort) ||
		errors.Is(err, domain.ErrCVUnreadable)
}
