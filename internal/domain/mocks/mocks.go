// Package mocks provides testify mocks for the domain ports.
package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/quyet5603/DATN-sub002/internal/domain"
)

// MockCandidateRepository mocks domain.CandidateRepository.
type MockCandidateRepository struct{ mock.Mock }

func (m *MockCandidateRepository) Get(ctx domain.Context, id string) (domain.CandidateProfile, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.CandidateProfile), args.Error(1)
}

// MockCVRepository mocks domain.CVRepository.
type MockCVRepository struct{ mock.Mock }

func (m *MockCVRepository) Get(ctx domain.Context, id string) (domain.CVRecord, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.CVRecord), args.Error(1)
}

func (m *MockCVRepository) Create(ctx domain.Context, cv domain.CVRecord) (string, error) {
	args := m.Called(ctx, cv)
	return args.String(0), args.Error(1)
}

func (m *MockCVRepository) DefaultForCandidate(ctx domain.Context, candidateID string) (domain.CVRecord, error) {
	args := m.Called(ctx, candidateID)
	return args.Get(0).(domain.CVRecord), args.Error(1)
}

func (m *MockCVRepository) LatestForCandidate(ctx domain.Context, candidateID string) (domain.CVRecord, error) {
	args := m.Called(ctx, candidateID)
	return args.Get(0).(domain.CVRecord), args.Error(1)
}

func (m *MockCVRepository) CountActive(ctx domain.Context, candidateID string) (int64, error) {
	args := m.Called(ctx, candidateID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCVRepository) SetDefault(ctx domain.Context, candidateID, cvID string) error {
	args := m.Called(ctx, candidateID, cvID)
	return args.Error(0)
}

func (m *MockCVRepository) SoftDelete(ctx domain.Context, candidateID, cvID string) error {
	args := m.Called(ctx, candidateID, cvID)
	return args.Error(0)
}

func (m *MockCVRepository) UpdateAnalysis(ctx domain.Context, id string, analysis domain.CVAnalysis, score *float64) error {
	args := m.Called(ctx, id, analysis, score)
	return args.Error(0)
}

func (m *MockCVRepository) UpdateExtractedText(ctx domain.Context, id, text string) error {
	args := m.Called(ctx, id, text)
	return args.Error(0)
}

// MockJobRepository mocks domain.JobRepository.
type MockJobRepository struct{ mock.Mock }

func (m *MockJobRepository) Get(ctx domain.Context, id string) (domain.JobPosting, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.JobPosting), args.Error(1)
}

func (m *MockJobRepository) ListOpen(ctx domain.Context, limit int) ([]domain.JobPosting, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JobPosting), args.Error(1)
}

// MockMatchRepository mocks domain.MatchRepository.
type MockMatchRepository struct{ mock.Mock }

func (m *MockMatchRepository) GetMatch(ctx domain.Context, candidateID, jobID string) (domain.MatchResult, error) {
	args := m.Called(ctx, candidateID, jobID)
	return args.Get(0).(domain.MatchResult), args.Error(1)
}

func (m *MockMatchRepository) PutMatch(ctx domain.Context, result domain.MatchResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

// MockFileStore mocks domain.FileStore.
type MockFileStore struct{ mock.Mock }

func (m *MockFileStore) Exists(ctx domain.Context, path string) bool {
	args := m.Called(ctx, path)
	return args.Bool(0)
}

func (m *MockFileStore) Read(ctx domain.Context, path string) ([]byte, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockFileStore) Write(ctx domain.Context, path string, data []byte) error {
	args := m.Called(ctx, path, data)
	return args.Error(0)
}

// MockCompletionClient mocks domain.CompletionClient.
type MockCompletionClient struct{ mock.Mock }

func (m *MockCompletionClient) Complete(ctx domain.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockResumeAnalyzer mocks domain.ResumeAnalyzer.
type MockResumeAnalyzer struct{ mock.Mock }

func (m *MockResumeAnalyzer) ExtractText(ctx domain.Context, fileName string, data []byte) (string, error) {
	args := m.Called(ctx, fileName, data)
	return args.String(0), args.Error(1)
}

func (m *MockResumeAnalyzer) Analyze(ctx domain.Context, fileName string, data []byte, jobDescription string) (domain.ResumeAnalysis, error) {
	args := m.Called(ctx, fileName, data, jobDescription)
	return args.Get(0).(domain.ResumeAnalysis), args.Error(1)
}

// MockQueue mocks domain.Queue.
type MockQueue struct{ mock.Mock }

func (m *MockQueue) EnqueueAnalyzeCV(ctx domain.Context, payload domain.AnalyzeCVPayload) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}
