package usecase

import (
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/quyet5603/DATN-sub002/internal/adapter/ai"
	"github.com/quyet5603/DATN-sub002/internal/domain"
	"github.com/quyet5603/DATN-sub002/pkg/textx"
)

// AnalyzeService runs the asynchronous CV analysis pipeline: extract
// text, ask the model for a structured analysis, compute the rubric
// score and store both on the CV record. Consumed from the queue; a
// failed task leaves the record unanalyzed and is logged, replays of
// the same CV id are harmless.
type AnalyzeService struct {
	cvs      domain.CVRepository
	files    domain.FileStore
	analyzer domain.ResumeAnalyzer
	prompts  *ai.PromptBuilder
	gateway  domain.CompletionClient
}

// NewAnalyzeService constructs an AnalyzeService.
func NewAnalyzeService(cvs domain.CVRepository, files domain.FileStore, analyzer domain.ResumeAnalyzer,
	prompts *ai.PromptBuilder, gateway domain.CompletionClient) *AnalyzeService {
	return &AnalyzeService{cvs: cvs, files: files, analyzer: analyzer, prompts: prompts, gateway: gateway}
}

// AnalyzeCV processes one queued analysis task.
func (s *AnalyzeService) AnalyzeCV(ctx domain.Context, payload domain.AnalyzeCVPayload) error {
	cv, err := s.cvs.Get(ctx, payload.CVID)
	if err != nil {
		return fmt.Errorf("op=analyze.load_cv: %w", err)
	}

	text := textx.SanitizeText(cv.ExtractedText)
	if text == "" {
		text, err = s.extractText(ctx, cv)
		if err != nil {
			return err
		}
		if err := s.cvs.UpdateExtractedText(ctx, cv.ID, text); err != nil {
			slog.Warn("failed to persist extracted text",
				slog.String("cv_id", cv.ID), slog.Any("error", err))
		}
	}
	if len(text) < MinCVTextLen {
		return fmt.Errorf("op=analyze.text: %w: %d chars", domain.ErrCVTooShort, len(text))
	}

	analysis, err := s.modelAnalysis(ctx, text)
	if err != nil {
		// The resume parser carries its own rule-based analyzer. It is
		// cruder than the model but keeps uploads from staying
		// unanalyzed across an LLM outage.
		fallback, ferr := s.parserAnalysis(ctx, cv)
		if ferr != nil {
			return err
		}
		slog.Warn("model analysis failed, stored parser analysis instead",
			slog.String("cv_id", cv.ID), slog.Any("error", err))
		analysis = fallback
	}

	rubric := CalculateRubricScore(analysis)
	if err := s.cvs.UpdateAnalysis(ctx, cv.ID, analysis, &rubric.Total); err != nil {
		return fmt.Errorf("op=analyze.store: %w", err)
	}

	slog.Info("cv analysis stored",
		slog.String("cv_id", cv.ID),
		slog.Float64("rubric_total", rubric.Total),
		slog.String("grade", rubric.Grade))
	return nil
}

func (s *AnalyzeService) modelAnalysis(ctx domain.Context, text string) (domain.CVAnalysis, error) {
	raw, err := s.gateway.Complete(ctx, s.prompts.AnalysisPrompt(text))
	if err != nil {
		return domain.CVAnalysis{}, fmt.Errorf("op=analyze.complete: %w", err)
	}
	analysis, err := ai.ExtractAnalysis(raw)
	if err != nil {
		return domain.CVAnalysis{}, fmt.Errorf("op=analyze.extract: %w", err)
	}
	if analysis.Empty() {
		return domain.CVAnalysis{}, fmt.Errorf("op=analyze.extract: %w: empty analysis", domain.ErrParseFailure)
	}
	return analysis, nil
}

func (s *AnalyzeService) parserAnalysis(ctx domain.Context, cv domain.CVRecord) (domain.CVAnalysis, error) {
	if cv.FilePath == "" {
		return domain.CVAnalysis{}, fmt.Errorf("op=analyze.fallback: %w", domain.ErrNoCV)
	}
	data, err := s.files.Read(ctx, cv.FilePath)
	if err != nil {
		return domain.CVAnalysis{}, fmt.Errorf("op=analyze.fallback: %w", err)
	}
	res, err := s.analyzer.Analyze(ctx, path.Base(cv.FilePath), data, "")
	if err != nil {
		return domain.CVAnalysis{}, fmt.Errorf("op=analyze.fallback: %w", err)
	}
	if res.Analysis.Empty() {
		return domain.CVAnalysis{}, fmt.Errorf("op=analyze.fallback: %w: empty analysis", domain.ErrParseFailure)
	}
	return res.Analysis, nil
}

func (s *AnalyzeService) extractText(ctx domain.Context, cv domain.CVRecord) (string, error) {
	if cv.FilePath == "" {
		return "", fmt.Errorf("op=analyze.extract_text: %w", domain.ErrNoCV)
	}
	data, err := s.files.Read(ctx, cv.FilePath)
	if err != nil {
		return "", fmt.Errorf("op=analyze.extract_text: %w", err)
	}
	if strings.HasPrefix(mimetype.Detect(data).String(), "text/plain") {
		return textx.SanitizeText(string(data)), nil
	}
	text, err := s.analyzer.ExtractText(ctx, path.Base(cv.FilePath), data)
	if err != nil {
		return "", fmt.Errorf("op=analyze.extract_text: %w", err)
	}
	return text, nil
}
