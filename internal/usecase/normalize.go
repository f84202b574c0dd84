package usecase

import (
	"time"

	"github.com/quyet5603/DATN-sub002/internal/adapter/ai"
	"github.com/quyet5603/DATN-sub002/internal/domain"
)

// NeutralScore is the overall score assigned when the model's output
// cannot be parsed. Not zero: an extraction failure must not read as a
// terrible match.
const NeutralScore = 50

// Presentation thresholds for the overall score.
const (
	labelHighlyMatched = "highly matched"
	labelMatched       = "matched"
	labelNeedsReview   = "needs review"
	labelNotMatched    = "not matched"
)

// NormalizeMatch turns an extraction outcome into a complete
// MatchResult. parseErr is the error from extraction; when set, the
// result is the neutral-50 shape with unknown sub-scores and a red
// flag, never a propagated error.
func NormalizeMatch(schema ai.MatchSchema, pm ai.PartialMatch, parseErr error) domain.MatchResult {
	m := domain.MatchResult{ComputedAt: time.Now().UTC()}

	if parseErr != nil {
		m.Overall = NeutralScore
		unknown := domain.SubScore{Status: domain.SubScoreUnknown}
		m.Location, m.Experience, m.Skills, m.Education = unknown, unknown, unknown, unknown
		m.RedFlags = []string{"Automatic CV analysis failed; a neutral default score is shown."}
		applyPresentation(&m)
		return m
	}

	if pm.Score != nil {
		m.Overall = *pm.Score
	} else {
		for _, d := range schema.Dimensions {
			if sub, ok := pm.Dims[d.Field]; ok && sub.Score != nil {
				m.Overall += *sub.Score
			}
		}
	}
	m.Overall = clamp(m.Overall, 0, 100)

	m.Location = subScore(pm, "location_match")
	m.Experience = subScore(pm, "experience_match")
	m.Skills = subScore(pm, "skills_match")
	m.Education = subScore(pm, "education_match")
	m.Reasons = pm.Reasons
	m.RedFlags = pm.RedFlags
	m.Suggestions = pm.Suggestions
	m.Analysis = pm.Analysis
	applyPresentation(&m)
	return m
}

// subScore defaults a missing or scoreless dimension to zero/unknown.
func subScore(pm ai.PartialMatch, field string) domain.SubScore {
	sub, ok := pm.Dims[field]
	if !ok {
		return domain.SubScore{Status: domain.SubScoreUnknown}
	}
	out := domain.SubScore{Status: sub.Status, Detail: sub.Detail}
	if sub.Score != nil {
		out.Score = *sub.Score
	}
	if out.Status == "" {
		out.Status = domain.SubScoreUnknown
	}
	return out
}

// applyPresentation derives label, emoji and color from the overall score.
func applyPresentation(m *domain.MatchResult) {
	switch {
	case m.Overall >= 80:
		m.Label, m.Emoji, m.Color = labelHighlyMatched, "🎯", "green"
	case m.Overall >= 60:
		m.Label, m.Emoji, m.Color = labelMatched, "✅", "blue"
	case m.Overall >= 40:
		m.Label, m.Emoji, m.Color = labelNeedsReview, "⚠️", "orange"
	default:
		m.Label, m.Emoji, m.Color = labelNotMatched, "❌", "red"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
