package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quyet5603/DATN-sub002/internal/adapter/ai"
	"github.com/quyet5603/DATN-sub002/internal/domain"
	"github.com/quyet5603/DATN-sub002/internal/domain/mocks"
	"github.com/quyet5603/DATN-sub002/internal/usecase"
)

const analysisJSON = `{"skills":["Go","SQL","Docker","Kafka","Redis","Linux","Git"],` +
	`"experience":"5 years of backend development","education":"Bachelor of Computer Science",` +
	`"strengths":["ownership","communication","testing"],"weaknesses":[]}`

func newAnalyzeFixture() (*usecase.AnalyzeService, *mocks.MockCVRepository, *mocks.MockFileStore, *mocks.MockResumeAnalyzer, *mocks.MockCompletionClient) {
	cvs := &mocks.MockCVRepository{}
	files := &mocks.MockFileStore{}
	analyzer := &mocks.MockResumeAnalyzer{}
	gateway := &mocks.MockCompletionClient{}
	prompts := ai.NewPromptBuilder(ai.DefaultMatchSchema(), "test-model", 1500, 2000)
	svc := usecase.NewAnalyzeService(cvs, files, analyzer, prompts, gateway)
	return svc, cvs, files, analyzer, gateway
}

func TestAnalyzeCV_StoresAnalysisAndRubricScore(t *testing.T) {
	t.Parallel()
	svc, cvs, _, _, gateway := newAnalyzeFixture()

	cvs.On("Get", mock.Anything, "cv-1").Return(domain.CVRecord{
		ID: "cv-1", CandidateID: "cand-1", ExtractedText: longCVText,
	}, nil)
	gateway.On("Complete", mock.Anything, mock.Anything).Return(analysisJSON, nil)
	cvs.On("UpdateAnalysis", mock.Anything, "cv-1",
		mock.MatchedBy(func(a domain.CVAnalysis) bool {
			return len(a.Skills) == 7 && a.Education == "Bachelor of Computer Science"
		}),
		mock.MatchedBy(func(score *float64) bool {
			// 7 skills(20) + 5y(30) + bachelor(15) + 3 strengths(12) + 4/4(10) = 87
			return score != nil && *score == 87
		})).Return(nil)

	err := svc.AnalyzeCV(context.Background(), domain.AnalyzeCVPayload{TaskID: "t-1", CVID: "cv-1"})
	require.NoError(t, err)
	cvs.AssertExpectations(t)
}

func TestAnalyzeCV_ExtractsTextWhenMissing(t *testing.T) {
	t.Parallel()
	svc, cvs, files, analyzer, gateway := newAnalyzeFixture()

	pdf := []byte("%PDF-1.4 body")
	cvs.On("Get", mock.Anything, "cv-1").Return(domain.CVRecord{
		ID: "cv-1", FilePath: "cvs/cand-1/cv-1.pdf",
	}, nil)
	files.On("Read", mock.Anything, "cvs/cand-1/cv-1.pdf").Return(pdf, nil)
	analyzer.On("ExtractText", mock.Anything, "cv-1.pdf", pdf).Return(longCVText, nil)
	cvs.On("UpdateExtractedText", mock.Anything, "cv-1", longCVText).Return(nil)
	gateway.On("Complete", mock.Anything, mock.Anything).Return(analysisJSON, nil)
	cvs.On("UpdateAnalysis", mock.Anything, "cv-1", mock.Anything, mock.Anything).Return(nil)

	err := svc.AnalyzeCV(context.Background(), domain.AnalyzeCVPayload{CVID: "cv-1"})
	require.NoError(t, err)
	analyzer.AssertExpectations(t)
}

func TestAnalyzeCV_ParseFailureLeavesRecordUntouched(t *testing.T) {
	t.Parallel()
	svc, cvs, _, _, gateway := newAnalyzeFixture()

	cvs.On("Get", mock.Anything, "cv-1").Return(domain.CVRecord{
		ID: "cv-1", ExtractedText: longCVText,
	}, nil)
	gateway.On("Complete", mock.Anything, mock.Anything).Return("no json here", nil)

	err := svc.AnalyzeCV(context.Background(), domain.AnalyzeCVPayload{CVID: "cv-1"})
	assert.True(t, errors.Is(err, domain.ErrParseFailure))
	cvs.AssertNotCalled(t, "UpdateAnalysis", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyzeCV_GatewayDownFallsBackToParserAnalysis(t *testing.T) {
	t.Parallel()
	svc, cvs, files, analyzer, gateway := newAnalyzeFixture()

	pdf := []byte("%PDF-1.4 body")
	cvs.On("Get", mock.Anything, "cv-1").Return(domain.CVRecord{
		ID: "cv-1", FilePath: "cvs/cand-1/cv-1.pdf", ExtractedText: longCVText,
	}, nil)
	gateway.On("Complete", mock.Anything, mock.Anything).
		Return("", domain.ErrUpstreamUnavailable)
	files.On("Read", mock.Anything, "cvs/cand-1/cv-1.pdf").Return(pdf, nil)
	analyzer.On("Analyze", mock.Anything, "cv-1.pdf", pdf, "").Return(domain.ResumeAnalysis{
		Analysis: domain.CVAnalysis{
			Skills:     []string{"Go", "SQL"},
			Experience: "2 years of backend work",
			Education:  "Bachelor of Computer Science",
		},
	}, nil)
	cvs.On("UpdateAnalysis", mock.Anything, "cv-1",
		mock.MatchedBy(func(a domain.CVAnalysis) bool { return len(a.Skills) == 2 }),
		mock.Anything).Return(nil)

	err := svc.AnalyzeCV(context.Background(), domain.AnalyzeCVPayload{CVID: "cv-1"})
	require.NoError(t, err)
	analyzer.AssertExpectations(t)
	cvs.AssertExpectations(t)
}

func TestAnalyzeCV_ShortTextFails(t *testing.T) {
	t.Parallel()
	svc, cvs, _, _, gateway := newAnalyzeFixture()

	cvs.On("Get", mock.Anything, "cv-1").Return(domain.CVRecord{
		ID: "cv-1", ExtractedText: "too short",
	}, nil)

	err := svc.AnalyzeCV(context.Background(), domain.AnalyzeCVPayload{CVID: "cv-1"})
	assert.True(t, errors.Is(err, domain.ErrCVTooShort))
	gateway.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}
