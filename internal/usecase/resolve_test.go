package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quyet5603/DATN-sub002/internal/domain"
	"github.com/quyet5603/DATN-sub002/internal/domain/mocks"
	"github.com/quyet5603/DATN-sub002/internal/usecase"
)

const longCVText = "Nguyen Van A, backend developer with 3 years of experience in Go, PostgreSQL and Kafka based systems."

func newResolver() (*usecase.Resolver, *mocks.MockCandidateRepository, *mocks.MockCVRepository, *mocks.MockFileStore, *mocks.MockResumeAnalyzer) {
	candidates := &mocks.MockCandidateRepository{}
	cvs := &mocks.MockCVRepository{}
	files := &mocks.MockFileStore{}
	analyzer := &mocks.MockResumeAnalyzer{}
	return usecase.NewResolver(candidates, cvs, files, analyzer), candidates, cvs, files, analyzer
}

func TestResolve_DefaultCVWinsOverLegacyText(t *testing.T) {
	t.Parallel()
	r, candidates, cvs, _, _ := newResolver()

	cvs.On("DefaultForCandidate", mock.Anything, "cand-1").Return(domain.CVRecord{
		ID: "cv-1", CandidateID: "cand-1", ExtractedText: longCVText,
	}, nil)

	got, err := r.Resolve(context.Background(), "cand-1")
	require.NoError(t, err)
	assert.Equal(t, usecase.SourceDefaultCV, got.Source)
	assert.Equal(t, longCVText, got.Text)
	// Legacy profile must never be consulted when the default CV has text.
	candidates.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestResolve_FallsBackToLatestThenLegacy(t *testing.T) {
	t.Parallel()
	r, candidates, cvs, _, _ := newResolver()

	cvs.On("DefaultForCandidate", mock.Anything, "cand-1").
		Return(domain.CVRecord{}, domain.ErrNotFound)
	cvs.On("LatestForCandidate", mock.Anything, "cand-1").
		Return(domain.CVRecord{}, domain.ErrNotFound)
	candidates.On("Get", mock.Anything, "cand-1").Return(domain.CandidateProfile{
		ID: "cand-1", LegacyCVText: longCVText,
	}, nil)

	got, err := r.Resolve(context.Background(), "cand-1")
	require.NoError(t, err)
	assert.Equal(t, usecase.SourceProfileText, got.Source)
}

func TestResolve_OnTheFlyExtractionPersistsText(t *testing.T) {
	t.Parallel()
	r, _, cvs, files, analyzer := newResolver()

	pdf := []byte("%PDF-1.4 fake body")
	cvs.On("DefaultForCandidate", mock.Anything, "cand-1").Return(domain.CVRecord{
		ID: "cv-1", CandidateID: "cand-1", FilePath: "cvs/cand-1/cv-1.pdf",
	}, nil)
	files.On("Read", mock.Anything, "cvs/cand-1/cv-1.pdf").Return(pdf, nil)
	analyzer.On("ExtractText", mock.Anything, "cv-1.pdf", pdf).Return(longCVText, nil)
	cvs.On("UpdateExtractedText", mock.Anything, "cv-1", longCVText).Return(nil)

	got, err := r.Resolve(context.Background(), "cand-1")
	require.NoError(t, err)
	assert.Equal(t, usecase.SourceDefaultCV, got.Source)
	cvs.AssertExpectations(t)
}

func TestResolve_TooShortBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		textLen int
		wantErr error
	}{
		{"49 chars is too short", 49, domain.ErrCVTooShort},
		{"50 chars is enough", 50, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, _, cvs, _, _ := newResolver()
			cvs.On("DefaultForCandidate", mock.Anything, "cand-1").Return(domain.CVRecord{
				ID: "cv-1", ExtractedText: strings.Repeat("a", tt.textLen),
			}, nil)

			_, err := r.Resolve(context.Background(), "cand-1")
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResolve_NoSourcesIsNoCV(t *testing.T) {
	t.Parallel()
	r, candidates, cvs, _, _ := newResolver()

	cvs.On("DefaultForCandidate", mock.Anything, "cand-1").
		Return(domain.CVRecord{}, domain.ErrNotFound)
	cvs.On("LatestForCandidate", mock.Anything, "cand-1").
		Return(domain.CVRecord{}, domain.ErrNotFound)
	candidates.On("Get", mock.Anything, "cand-1").
		Return(domain.CandidateProfile{ID: "cand-1"}, nil)

	_, err := r.Resolve(context.Background(), "cand-1")
	assert.True(t, errors.Is(err, domain.ErrNoCV))
}

func TestResolve_SourcesPresentButUnreadable(t *testing.T) {
	t.Parallel()
	r, candidates, cvs, files, analyzer := newResolver()

	cvs.On("DefaultForCandidate", mock.Anything, "cand-1").Return(domain.CVRecord{
		ID: "cv-1", FilePath: "cvs/cand-1/cv-1.pdf",
	}, nil)
	files.On("Read", mock.Anything, "cvs/cand-1/cv-1.pdf").Return([]byte("%PDF-1.4"), nil)
	analyzer.On("ExtractText", mock.Anything, "cv-1.pdf", mock.Anything).
		Return("", domain.ErrCVUnreadable)
	cvs.On("LatestForCandidate", mock.Anything, "cand-1").
		Return(domain.CVRecord{}, domain.ErrNotFound)
	candidates.On("Get", mock.Anything, "cand-1").
		Return(domain.CandidateProfile{ID: "cand-1"}, nil)

	_, err := r.Resolve(context.Background(), "cand-1")
	assert.True(t, errors.Is(err, domain.ErrCVUnreadable))
}

func TestResolve_EmptyCandidateID(t *testing.T) {
	t.Parallel()
	r, _, _, _, _ := newResolver()
	_, err := r.Resolve(context.Background(), "")
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}
