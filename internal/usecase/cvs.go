package usecase

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/quyet5603/DATN-sub002/internal/domain"
)

// allowedCVExtensions guards uploads before content sniffing.
var allowedCVExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
}

// CVService manages the CV lifecycle: upload, default selection, soft
// delete and the rubric view.
type CVService struct {
	cvs       domain.CVRepository
	files     domain.FileStore
	queue     domain.Queue
	maxUpload int64
}

// NewCVService constructs a CVService. maxUpload is in bytes.
func NewCVService(cvs domain.CVRepository, files domain.FileStore, queue domain.Queue, maxUpload int64) *CVService {
	return &CVService{cvs: cvs, files: files, queue: queue, maxUpload: maxUpload}
}

// Upload stores a new CV file, creates its record and enqueues the
// asynchronous analysis. The first active CV of a candidate becomes the
// default automatically.
func (s *CVService) Upload(ctx domain.Context, candidateID, fileName string, data []byte) (domain.CVRecord, error) {
	if candidateID == "" {
		return domain.CVRecord{}, fmt.Errorf("op=cv.upload: %w: empty candidate id", domain.ErrInvalidArgument)
	}
	if len(data) == 0 {
		return domain.CVRecord{}, fmt.Errorf("op=cv.upload: %w: empty file", domain.ErrInvalidArgument)
	}
	if s.maxUpload > 0 && int64(len(data)) > s.maxUpload {
		return domain.CVRecord{}, fmt.Errorf("op=cv.upload: %w: file exceeds %d bytes", domain.ErrInvalidArgument, s.maxUpload)
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedCVExtensions[ext] {
		return domain.CVRecord{}, fmt.Errorf("op=cv.upload: %w: unsupported extension %q", domain.ErrInvalidArgument, ext)
	}
	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(),
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"text/plain; charset=utf-8",
		"text/plain") {
		return domain.CVRecord{}, fmt.Errorf("op=cv.upload: %w: unsupported content type %s", domain.ErrInvalidArgument, mt.String())
	}

	id := uuid.New().String()
	filePath := fmt.Sprintf("cvs/%s/%s%s", candidateID, id, ext)
	if err := s.files.Write(ctx, filePath, data); err != nil {
		return domain.CVRecord{}, fmt.Errorf("op=cv.upload: %w", err)
	}

	active, err := s.cvs.CountActive(ctx, candidateID)
	if err != nil {
		return domain.CVRecord{}, fmt.Errorf("op=cv.upload: %w", err)
	}

	cv := domain.CVRecord{
		ID:          id,
		CandidateID: candidateID,
		Name:        fileName,
		FilePath:    filePath,
		IsDefault:   active == 0,
		Active:      true,
	}
	if _, err := s.cvs.Create(ctx, cv); err != nil {
		return domain.CVRecord{}, fmt.Errorf("op=cv.upload: %w", err)
	}

	taskID, err := s.queue.EnqueueAnalyzeCV(ctx, domain.AnalyzeCVPayload{
		CVID:        id,
		CandidateID: candidateID,
	})
	if err != nil {
		// The record exists and is usable; analysis just has to wait
		// for a later manual trigger.
		slog.Error("analysis enqueue failed",
			slog.String("cv_id", id), slog.Any("error", err))
	} else {
		slog.Info("cv uploaded",
			slog.String("cv_id", id),
			slog.String("candidate_id", candidateID),
			slog.String("task_id", taskID),
			slog.Bool("is_default", cv.IsDefault))
	}
	return cv, nil
}

// SetDefault makes cvID the candidate's default CV.
func (s *CVService) SetDefault(ctx domain.Context, candidateID, cvID string) error {
	if candidateID == "" || cvID == "" {
		return fmt.Errorf("op=cv.set_default: %w: empty id", domain.ErrInvalidArgument)
	}
	return s.cvs.SetDefault(ctx, candidateID, cvID)
}

// Delete soft-deletes a CV.
func (s *CVService) Delete(ctx domain.Context, candidateID, cvID string) error {
	if candidateID == "" || cvID == "" {
		return fmt.Errorf("op=cv.delete: %w: empty id", domain.ErrInvalidArgument)
	}
	return s.cvs.SoftDelete(ctx, candidateID, cvID)
}

// Rubric returns the deterministic rubric score of an analyzed CV.
// An unanalyzed CV yields ErrConflict: the analysis task has not
// completed yet.
func (s *CVService) Rubric(ctx domain.Context, cvID string) (domain.RubricScore, error) {
	if cvID == "" {
		return domain.RubricScore{}, fmt.Errorf("op=cv.rubric: %w: empty cv id", domain.ErrInvalidArgument)
	}
	cv, err := s.cvs.Get(ctx, cvID)
	if err != nil {
		return domain.RubricScore{}, err
	}
	if cv.Analysis.Empty() {
		return domain.RubricScore{}, fmt.Errorf("op=cv.rubric: %w: cv not analyzed yet", domain.ErrConflict)
	}
	return CalculateRubricScore(cv.Analysis), nil
}

// RecomputeRubric recalculates the rubric from the stored analysis and
// persists the new total on the record. Useful after the rubric weights
// change without re-running the model.
func (s *CVService) RecomputeRubric(ctx domain.Context, cvID string) (domain.RubricScore, error) {
	if cvID == "" {
		return domain.RubricScore{}, fmt.Errorf("op=cv.recompute_rubric: %w: empty cv id", domain.ErrInvalidArgument)
	}
	cv, err := s.cvs.Get(ctx, cvID)
	if err != nil {
		return domain.RubricScore{}, err
	}
	if cv.Analysis.Empty() {
		return domain.RubricScore{}, fmt.Errorf("op=cv.recompute_rubric: %w: cv not analyzed yet", domain.ErrConflict)
	}
	score := CalculateRubricScore(cv.Analysis)
	if err := s.cvs.UpdateAnalysis(ctx, cv.ID, cv.Analysis, &score.Total); err != nil {
		return domain.RubricScore{}, fmt.Errorf("op=cv.recompute_rubric: %w", err)
	}
	return score, nil
}
