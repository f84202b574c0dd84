// Package usecase contains the application services of the matching
// pipeline: CV text resolution, score normalization, the deterministic
// rubric, the matching orchestrator and the asynchronous CV analysis.
package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/quyet5603/DATN-sub002/internal/domain"
	"github.com/quyet5603/DATN-sub002/pkg/textx"
)

// MinCVTextLen is the minimum number of characters a resolved CV text
// must have to be usable for matching.
const MinCVTextLen = 50

// CV text source identifiers, in resolution order.
const (
	SourceDefaultCV   = "cv_default"
	SourceLatestCV    = "cv_latest"
	SourceProfileFile = "profile_file"
	SourceProfileText = "profile_text"
)

// ResolvedCV is the outcome of CV text resolution.
type ResolvedCV struct {
	Text   string
	Source string
}

// Resolver locates the best available CV text for a candidate.
//
// Precedence: default active CV record, then the most recently updated
// active record, then the legacy profile file, then legacy profile text.
// For records, stored extracted text wins over re-extraction from the
// file; extraction happens on the fly only when text is absent.
type Resolver struct {
	candidates domain.CandidateRepository
	cvs        domain.CVRepository
	files      domain.FileStore
	analyzer   domain.ResumeAnalyzer
}

// NewResolver constructs a Resolver.
func NewResolver(candidates domain.CandidateRepository, cvs domain.CVRepository, files domain.FileStore, analyzer domain.ResumeAnalyzer) *Resolver {
	return &Resolver{candidates: candidates, cvs: cvs, files: files, analyzer: analyzer}
}

// Resolve returns the candidate's CV text or one of the resolution
// sentinels: ErrNoCV when no source exists at all, ErrCVUnreadable when
// sources exist but none yields text, ErrCVTooShort when the best text
// is under MinCVTextLen characters.
func (r *Resolver) Resolve(ctx domain.Context, candidateID string) (ResolvedCV, error) {
	if candidateID == "" {
		return ResolvedCV{}, fmt.Errorf("op=resolve: %w: empty candidate id", domain.ErrInvalidArgument)
	}

	hadSource := false

	if cv, err := r.cvs.DefaultForCandidate(ctx, candidateID); err == nil {
		hadSource = true
		if text := r.textFromRecord(ctx, cv); text != "" {
			return checkLength(text, SourceDefaultCV)
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return ResolvedCV{}, err
	}

	if cv, err := r.cvs.LatestForCandidate(ctx, candidateID); err == nil {
		hadSource = true
		if text := r.textFromRecord(ctx, cv); text != "" {
			return checkLength(text, SourceLatestCV)
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return ResolvedCV{}, err
	}

	profile, err := r.candidates.Get(ctx, candidateID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) && !hadSource {
			return ResolvedCV{}, fmt.Errorf("op=resolve: %w", domain.ErrNoCV)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return ResolvedCV{}, fmt.Errorf("op=resolve: %w", domain.ErrCVUnreadable)
		}
		return ResolvedCV{}, err
	}

	if profile.LegacyCVFilePath != "" {
		hadSource = true
		if text := r.textFromFile(ctx, profile.LegacyCVFilePath); text != "" {
			return checkLength(text, SourceProfileFile)
		}
	}
	if text := textx.SanitizeText(profile.LegacyCVText); text != "" {
		hadSource = true
		return checkLength(text, SourceProfileText)
	}

	if hadSource {
		return ResolvedCV{}, fmt.Errorf("op=resolve: %w", domain.ErrCVUnreadable)
	}
	return ResolvedCV{}, fmt.Errorf("op=resolve: %w", domain.ErrNoCV)
}

func checkLength(text, source string) (ResolvedCV, error) {
	if len(text) < MinCVTextLen {
		return ResolvedCV{}, fmt.Errorf("op=resolve: %w: %d chars from %s", domain.ErrCVTooShort, len(text), source)
	}
	return ResolvedCV{Text: text, Source: source}, nil
}

// textFromRecord prefers the stored extracted text and falls back to
// extracting from the stored file. A successful on-the-fly extraction
// is written back so the next resolution skips the parser.
func (r *Resolver) textFromRecord(ctx domain.Context, cv domain.CVRecord) string {
	if text := textx.SanitizeText(cv.ExtractedText); text != "" {
		return text
	}
	if cv.FilePath == "" {
		return ""
	}
	text := r.textFromFile(ctx, cv.FilePath)
	if text != "" {
		if err := r.cvs.UpdateExtractedText(ctx, cv.ID, text); err != nil {
			slog.Warn("failed to persist extracted text",
				slog.String("cv_id", cv.ID), slog.Any("error", err))
		}
	}
	return text
}

// textFromFile reads the file and extracts plain text. PDFs and Word
// documents go through the resume parser; anything that already looks
// like text is sanitized directly.
func (r *Resolver) textFromFile(ctx domain.Context, filePath string) string {
	data, err := r.files.Read(ctx, filePath)
	if err != nil {
		slog.Warn("cv file unreadable", slog.String("path", filePath), slog.Any("error", err))
		return ""
	}
	mt := mimetype.Detect(data)
	if strings.HasPrefix(mt.String(), "text/plain") {
		return textx.SanitizeText(string(data))
	}
	text, err := r.analyzer.ExtractText(ctx, path.Base(filePath), data)
	if err != nil {
		slog.Warn("cv text extraction failed", slog.String("path", filePath), slog.Any("error", err))
		return ""
	}
	return text
}
