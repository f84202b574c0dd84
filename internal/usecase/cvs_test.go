package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quyet5603/DATN-sub002/internal/domain"
	"github.com/quyet5603/DATN-sub002/internal/domain/mocks"
	"github.com/quyet5603/DATN-sub002/internal/usecase"
)

var pdfUpload = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF")

func newCVFixture() (*usecase.CVService, *mocks.MockCVRepository, *mocks.MockFileStore, *mocks.MockQueue) {
	cvs := &mocks.MockCVRepository{}
	files := &mocks.MockFileStore{}
	queue := &mocks.MockQueue{}
	return usecase.NewCVService(cvs, files, queue, 5<<20), cvs, files, queue
}

func TestUpload_FirstCVBecomesDefaultAndEnqueuesAnalysis(t *testing.T) {
	t.Parallel()
	svc, cvs, files, queue := newCVFixture()

	files.On("Write", mock.Anything, mock.Anything, pdfUpload).Return(nil)
	cvs.On("CountActive", mock.Anything, "cand-1").Return(int64(0), nil)
	cvs.On("Create", mock.Anything, mock.MatchedBy(func(cv domain.CVRecord) bool {
		return cv.CandidateID == "cand-1" && cv.IsDefault && cv.Active && cv.Name == "my-cv.pdf"
	})).Return("cv-1", nil)
	queue.On("EnqueueAnalyzeCV", mock.Anything, mock.MatchedBy(func(p domain.AnalyzeCVPayload) bool {
		return p.CandidateID == "cand-1" && p.CVID != ""
	})).Return("task-1", nil)

	cv, err := svc.Upload(context.Background(), "cand-1", "my-cv.pdf", pdfUpload)
	require.NoError(t, err)
	assert.True(t, cv.IsDefault)
	queue.AssertExpectations(t)
}

func TestUpload_SecondCVIsNotDefault(t *testing.T) {
	t.Parallel()
	svc, cvs, files, queue := newCVFixture()

	files.On("Write", mock.Anything, mock.Anything, pdfUpload).Return(nil)
	cvs.On("CountActive", mock.Anything, "cand-1").Return(int64(1), nil)
	cvs.On("Create", mock.Anything, mock.MatchedBy(func(cv domain.CVRecord) bool {
		return !cv.IsDefault
	})).Return("cv-2", nil)
	queue.On("EnqueueAnalyzeCV", mock.Anything, mock.Anything).Return("task-2", nil)

	cv, err := svc.Upload(context.Background(), "cand-1", "second.pdf", pdfUpload)
	require.NoError(t, err)
	assert.False(t, cv.IsDefault)
}

func TestUpload_RejectsUnsupportedFiles(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newCVFixture()

	tests := []struct {
		name     string
		fileName string
		data     []byte
	}{
		{"wrong extension", "cv.exe", pdfUpload},
		{"empty file", "cv.pdf", nil},
		{"content mismatch", "cv.pdf", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.Upload(context.Background(), "cand-1", tt.fileName, tt.data)
			assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
		})
	}
}

func TestUpload_EnqueueFailureDoesNotFailUpload(t *testing.T) {
	t.Parallel()
	svc, cvs, files, queue := newCVFixture()

	files.On("Write", mock.Anything, mock.Anything, pdfUpload).Return(nil)
	cvs.On("CountActive", mock.Anything, "cand-1").Return(int64(0), nil)
	cvs.On("Create", mock.Anything, mock.Anything).Return("cv-1", nil)
	queue.On("EnqueueAnalyzeCV", mock.Anything, mock.Anything).
		Return("", errors.New("brokers unreachable"))

	_, err := svc.Upload(context.Background(), "cand-1", "cv.pdf", pdfUpload)
	assert.NoError(t, err, "the record exists; analysis catches up later")
}

func TestRubric_UnanalyzedCVIsConflict(t *testing.T) {
	t.Parallel()
	svc, cvs, _, _ := newCVFixture()

	cvs.On("Get", mock.Anything, "cv-1").Return(domain.CVRecord{ID: "cv-1"}, nil)

	_, err := svc.Rubric(context.Background(), "cv-1")
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestRubric_AnalyzedCV(t *testing.T) {
	t.Parallel()
	svc, cvs, _, _ := newCVFixture()

	cvs.On("Get", mock.Anything, "cv-1").Return(domain.CVRecord{
		ID: "cv-1",
		Analysis: domain.CVAnalysis{
			Skills:     []string{"a", "b", "c", "d", "e", "f", "g"},
			Experience: "5 years at company",
			Education:  "Bachelor's degree",
			Strengths:  []string{"x", "y", "z"},
		},
	}, nil)

	score, err := svc.Rubric(context.Background(), "cv-1")
	require.NoError(t, err)
	assert.Equal(t, 87.0, score.Total)
	assert.Equal(t, "Tốt", score.Grade)
}
