package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quyet5603/DATN-sub002/internal/adapter/ai"
	"github.com/quyet5603/DATN-sub002/internal/domain"
	"github.com/quyet5603/DATN-sub002/internal/domain/mocks"
	"github.com/quyet5603/DATN-sub002/internal/usecase"
)

type matchFixture struct {
	svc        *usecase.MatchService
	candidates *mocks.MockCandidateRepository
	cvs        *mocks.MockCVRepository
	matches    *mocks.MockMatchRepository
	gateway    *mocks.MockCompletionClient
}

func newMatchFixture(evalLimit, topK int) *matchFixture {
	candidates := &mocks.MockCandidateRepository{}
	cvs := &mocks.MockCVRepository{}
	files := &mocks.MockFileStore{}
	analyzer := &mocks.MockResumeAnalyzer{}
	matches := &mocks.MockMatchRepository{}
	gateway := &mocks.MockCompletionClient{}

	resolver := usecase.NewResolver(candidates, cvs, files, analyzer)
	prompts := ai.NewPromptBuilder(ai.DefaultMatchSchema(), "test-model", 1500, 2000)
	svc := usecase.NewMatchService(resolver, prompts, gateway, matches, nil, evalLimit, topK)
	return &matchFixture{svc: svc, candidates: candidates, cvs: cvs, matches: matches, gateway: gateway}
}

func (fx *matchFixture) withCV(text string) {
	fx.cvs.On("DefaultForCandidate", mock.Anything, mock.Anything).Return(domain.CVRecord{
		ID: "cv-1", CandidateID: "cand-1", ExtractedText: text,
	}, nil)
}

func (fx *matchFixture) withoutCV() {
	fx.cvs.On("DefaultForCandidate", mock.Anything, mock.Anything).
		Return(domain.CVRecord{}, domain.ErrNotFound)
	fx.cvs.On("LatestForCandidate", mock.Anything, mock.Anything).
		Return(domain.CVRecord{}, domain.ErrNotFound)
	fx.candidates.On("Get", mock.Anything, mock.Anything).
		Return(domain.CandidateProfile{ID: "cand-1"}, nil)
}

var testJob = domain.JobPosting{
	ID:                 "job-1",
	Title:              "Backend Engineer",
	Location:           "Ha Noi",
	MinExperienceYears: 3,
	RequiredSkills:     []string{"SQL", "Python"},
	Description:        "Build data pipelines.",
}

const gatewayJSON = `{"score":72,"location_match":{"score":10,"status":"partial","detail":"different city"},` +
	`"experience_match":{"score":25,"status":"matched","detail":"3 years"},` +
	`"skills_match":{"score":22,"status":"partial","detail":"SQL only"},` +
	`"education_match":{"score":15,"status":"matched","detail":"bachelor"},` +
	`"match_reasons":["solid SQL background"],"red_flags":[],"suggestions":["learn Python"],` +
	`"analysis":"Decent fit overall."}`

func TestScoreOne_FreshComputationAndWriteThrough(t *testing.T) {
	t.Parallel()
	fx := newMatchFixture(30, 10)
	fx.withCV(longCVText)
	fx.matches.On("GetMatch", mock.Anything, "cand-1", "job-1").
		Return(domain.MatchResult{}, domain.ErrNotFound).Once()
	fx.gateway.On("Complete", mock.Anything, mock.Anything).Return(gatewayJSON, nil).Once()
	fx.matches.On("PutMatch", mock.Anything, mock.MatchedBy(func(m domain.MatchResult) bool {
		return m.Overall == 72 && m.CandidateID == "cand-1" && m.JobID == "job-1"
	})).Return(nil).Once()

	out, err := fx.svc.ScoreOne(context.Background(), "cand-1", testJob)
	require.NoError(t, err)
	assert.True(t, out.HasCV)
	assert.False(t, out.FromCache)
	assert.Equal(t, 72.0, out.Overall)
	assert.Equal(t, "matched", out.Label)
	assert.Equal(t, "solid SQL background", out.Reasons[0])
	fx.matches.AssertExpectations(t)
	fx.gateway.AssertExpectations(t)
}

func TestScoreOne_SecondCallServedFromCache(t *testing.T) {
	t.Parallel()
	fx := newMatchFixture(30, 10)
	fx.withCV(longCVText)

	// First call: miss, compute, persist.
	fx.matches.On("GetMatch", mock.Anything, "cand-1", "job-1").
		Return(domain.MatchResult{}, domain.ErrNotFound).Once()
	fx.gateway.On("Complete", mock.Anything, mock.Anything).Return(gatewayJSON, nil).Once()
	var stored domain.MatchResult
	fx.matches.On("PutMatch", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(1).(domain.MatchResult) }).
		Return(nil).Once()

	first, err := fx.svc.ScoreOne(context.Background(), "cand-1", testJob)
	require.NoError(t, err)
	require.Equal(t, 72.0, first.Overall)

	// Second call: hit; a now-failing gateway must not be consulted.
	fx.matches.On("GetMatch", mock.Anything, "cand-1", "job-1").Return(stored, nil).Once()
	fx.gateway.On("Complete", mock.Anything, mock.Anything).
		Return("", fmt.Errorf("%w", domain.ErrUpstreamUnavailable)).Maybe()

	second, err := fx.svc.ScoreOne(context.Background(), "cand-1", testJob)
	require.NoError(t, err)
	assert.Equal(t, 72.0, second.Overall)
	assert.True(t, second.FromCache)
	fx.gateway.AssertNumberOfCalls(t, "Complete", 1)
}

func TestScoreOne_ZeroStoredScoreIsNotAHit(t *testing.T) {
	t.Parallel()
	fx := newMatchFixture(30, 10)
	fx.withCV(longCVText)
	fx.matches.On("GetMatch", mock.Anything, "cand-1", "job-1").
		Return(domain.MatchResult{CandidateID: "cand-1", JobID: "job-1", Overall: 0}, nil).Once()
	fx.gateway.On("Complete", mock.Anything, mock.Anything).Return(gatewayJSON, nil).Once()
	fx.matches.On("PutMatch", mock.Anything, mock.Anything).Return(nil).Once()

	out, err := fx.svc.ScoreOne(context.Background(), "cand-1", testJob)
	require.NoError(t, err)
	assert.False(t, out.FromCache)
	assert.Equal(t, 72.0, out.Overall)
}

func TestScoreOne_NoCVIsSuccessWithZeroScore(t *testing.T) {
	t.Parallel()
	fx := newMatchFixture(30, 10)
	fx.withoutCV()

	out, err := fx.svc.ScoreOne(context.Background(), "cand-1", testJob)
	require.NoError(t, err)
	assert.False(t, out.HasCV)
	assert.Equal(t, 0.0, out.Overall)
	assert.NotEmpty(t, out.Message)
	fx.gateway.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestScoreOne_GatewayFailureTags(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		err     error
		wantTag string
	}{
		{"unreachable", domain.ErrUpstreamUnavailable, usecase.TagServiceUnavailable},
		{"timeout", domain.ErrUpstreamTimeout, usecase.TagServiceUnavailable},
		{"rate limited", domain.ErrUpstreamRateLimit, usecase.TagGenericFailure},
		{"upstream 500", domain.ErrUpstreamError, usecase.TagGenericFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fx := newMatchFixture(30, 10)
			fx.withCV(longCVText)
			fx.matches.On("GetMatch", mock.Anything, mock.Anything, mock.Anything).
				Return(domain.MatchResult{}, domain.ErrNotFound)
			fx.gateway.On("Complete", mock.Anything, mock.Anything).
				Return("", fmt.Errorf("op=gateway.complete: %w", tt.err))

			out, err := fx.svc.ScoreOne(context.Background(), "cand-1", testJob)
			require.NoError(t, err, "gateway failure must not propagate")
			assert.True(t, out.HasCV)
			assert.Equal(t, 0.0, out.Overall)
			assert.Equal(t, tt.wantTag, out.ErrorTag)
		})
	}
}

func TestScoreOne_ParseFailureIsNeutralAndPersisted(t *testing.T) {
	t.Parallel()
	fx := newMatchFixture(30, 10)
	fx.withCV(longCVText)
	fx.matches.On("GetMatch", mock.Anything, mock.Anything, mock.Anything).
		Return(domain.MatchResult{}, domain.ErrNotFound)
	fx.gateway.On("Complete", mock.Anything, mock.Anything).
		Return("model rambled with no JSON at all", nil)
	fx.matches.On("PutMatch", mock.Anything, mock.MatchedBy(func(m domain.MatchResult) bool {
		return m.Overall == 50
	})).Return(nil).Once()

	out, err := fx.svc.ScoreOne(context.Background(), "cand-1", testJob)
	require.NoError(t, err)
	assert.Equal(t, 50.0, out.Overall)
	assert.NotEmpty(t, out.RedFlags)
	fx.matches.AssertExpectations(t)
}

func TestScoreOne_EmptyIDs(t *testing.T) {
	t.Parallel()
	fx := newMatchFixture(30, 10)
	_, err := fx.svc.ScoreOne(context.Background(), "", testJob)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func jobList(n int) []domain.JobPosting {
	jobs := make([]domain.JobPosting, n)
	for i := range jobs {
		jobs[i] = domain.JobPosting{ID: fmt.Sprintf("job-%d", i), Title: fmt.Sprintf("Job %d", i)}
	}
	return jobs
}

func TestRankJobs_FailureIsolationAndOrdering(t *testing.T) {
	t.Parallel()
	fx := newMatchFixture(30, 10)
	fx.withCV(longCVText)
	fx.matches.On("GetMatch", mock.Anything, mock.Anything, mock.Anything).
		Return(domain.MatchResult{}, domain.ErrNotFound)
	fx.matches.On("PutMatch", mock.Anything, mock.Anything).Return(nil)

	jobs := jobList(3)
	fx.gateway.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Job 0")
	})).Return(`{"score":55}`, nil)
	fx.gateway.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Job 1")
	})).Return("", fmt.Errorf("%w", domain.ErrUpstreamUnavailable))
	fx.gateway.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Job 2")
	})).Return(`{"score":90}`, nil)

	ranked, personalized, err := fx.svc.RankJobs(context.Background(), "cand-1", jobs)
	require.NoError(t, err)
	assert.True(t, personalized)
	require.Len(t, ranked, 3)

	assert.Equal(t, "job-2", ranked[0].Job.ID)
	assert.Equal(t, 90.0, ranked[0].Score)
	assert.Equal(t, "job-0", ranked[1].Job.ID)
	// The failed job sinks to the bottom with its own tag; the batch survived.
	assert.Equal(t, "job-1", ranked[2].Job.ID)
	assert.Equal(t, 0.0, ranked[2].Score)
	assert.Equal(t, usecase.TagServiceUnavailable, ranked[2].ErrorTag)
}

func TestRankJobs_EvalPrefixBoundAndTopK(t *testing.T) {
	t.Parallel()
	fx := newMatchFixture(30, 10)
	fx.withCV(longCVText)
	fx.matches.On("GetMatch", mock.Anything, mock.Anything, mock.Anything).
		Return(domain.MatchResult{}, domain.ErrNotFound)
	fx.matches.On("PutMatch", mock.Anything, mock.Anything).Return(nil)
	fx.gateway.On("Complete", mock.Anything, mock.Anything).Return(`{"score":61}`, nil)

	ranked, personalized, err := fx.svc.RankJobs(context.Background(), "cand-1", jobList(45))
	require.NoError(t, err)
	assert.True(t, personalized)
	assert.Len(t, ranked, 10, "top-K cap")
	// Only the first 30 jobs may trigger model calls.
	fx.gateway.AssertNumberOfCalls(t, "Complete", 30)
	for _, entry := range ranked {
		assert.Equal(t, 61.0, entry.Score)
	}
}

func TestRankJobs_NoCVReturnsZeroedListUnpersonalized(t *testing.T) {
	t.Parallel()
	fx := newMatchFixture(30, 10)
	fx.withoutCV()

	ranked, personalized, err := fx.svc.RankJobs(context.Background(), "cand-1", jobList(12))
	require.NoError(t, err)
	assert.False(t, personalized)
	assert.Len(t, ranked, 10)
	for _, entry := range ranked {
		assert.Equal(t, 0.0, entry.Score)
	}
	fx.gateway.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestRankJobs_StableSortPreservesOriginalOrderOnTies(t *testing.T) {
	t.Parallel()
	fx := newMatchFixture(2, 10)
	fx.withCV(longCVText)
	fx.matches.On("GetMatch", mock.Anything, mock.Anything, mock.Anything).
		Return(domain.MatchResult{}, domain.ErrNotFound)
	fx.matches.On("PutMatch", mock.Anything, mock.Anything).Return(nil)
	fx.gateway.On("Complete", mock.Anything, mock.Anything).Return(`{"score":0}`, nil)

	// All entries end at zero: evaluated and pass-through alike. Order
	// must remain the input order.
	jobs := jobList(5)
	ranked, _, err := fx.svc.RankJobs(context.Background(), "cand-1", jobs)
	require.NoError(t, err)
	require.Len(t, ranked, 5)
	for i, entry := range ranked {
		assert.Equal(t, jobs[i].ID, entry.Job.ID)
	}
}
