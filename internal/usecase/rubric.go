package usecase

import (
	"strings"

	"github.com/quyet5603/DATN-sub002/internal/domain"
)

// Rubric grade thresholds.
const (
	gradeExcellent = "Xuất sắc"
	gradeGood      = "Tốt"
	gradeFair      = "Khá"
	gradeAverage   = "Trung bình"
	gradePoor      = "Cần cải thiện"
)

// Component cutoffs under which a recommendation is emitted.
const (
	cutoffSkills       = 15
	cutoffExperience   = 15
	cutoffEducation    = 10
	cutoffStrengths    = 8
	cutoffCompleteness = 7
)

// CalculateRubricScore scores a CV from its analysis fields alone.
// Deterministic: the same analysis always yields the same score, no
// model call involved.
func CalculateRubricScore(a domain.CVAnalysis) domain.RubricScore {
	b := domain.RubricBreakdown{
		Skills:       skillsScore(len(a.Skills)),
		Experience:   experienceScore(a.Experience),
		Education:    educationScore(a.Education),
		Strengths:    strengthsScore(len(a.Strengths)),
		Completeness: completenessScore(a),
		Penalty:      weaknessPenalty(len(a.Weaknesses)),
	}
	total := clamp(b.Skills+b.Experience+b.Education+b.Strengths+b.Completeness-b.Penalty, 0, 100)
	return domain.RubricScore{
		Total:           total,
		Grade:           grade(total),
		Breakdown:       b,
		Recommendations: recommendations(total, b),
	}
}

func skillsScore(n int) float64 {
	switch {
	case n >= 10:
		return 25
	case n >= 7:
		return 20
	case n >= 5:
		return 15
	case n >= 3:
		return 10
	case n >= 1:
		return 5
	default:
		return 0
	}
}

func experienceScore(text string) float64 {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	if years, found := MaxExperienceYears(trimmed); found {
		switch {
		case years >= 5:
			return 30
		case years >= 3:
			return 25
		case years >= 2:
			return 20
		default:
			return 15
		}
	}
	if MentionsNoExperience(trimmed) {
		return 5
	}
	// Experience text present but no year count: partial credit.
	return 12
}

func educationScore(text string) float64 {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	lower := strings.ToLower(trimmed)
	for _, level := range rubricVocab().EducationLevels {
		for _, kw := range level.Keywords {
			if strings.Contains(lower, kw) {
				return level.Score
			}
		}
	}
	return 5
}

func strengthsScore(n int) float64 {
	switch {
	case n >= 5:
		return 15
	case n >= 3:
		return 12
	case n == 2:
		return 8
	case n == 1:
		return 5
	default:
		return 0
	}
}

// completenessScore awards (filled major fields / 4) × 10 over skills,
// experience, education and strengths.
func completenessScore(a domain.CVAnalysis) float64 {
	filled := 0
	if len(a.Skills) > 0 {
		filled++
	}
	if strings.TrimSpace(a.Experience) != "" {
		filled++
	}
	if strings.TrimSpace(a.Education) != "" {
		filled++
	}
	if len(a.Strengths) > 0 {
		filled++
	}
	return float64(filled) / 4 * 10
}

// weaknessPenalty is a step function: many listed weaknesses cost a
// fixed deduction, never a linear one.
func weaknessPenalty(n int) float64 {
	switch {
	case n >= 5:
		return 10
	case n >= 3:
		return 5
	default:
		return 0
	}
}

func grade(total float64) string {
	switch {
	case total >= 90:
		return gradeExcellent
	case total >= 80:
		return gradeGood
	case total >= 65:
		return gradeFair
	case total >= 50:
		return gradeAverage
	default:
		return gradePoor
	}
}

// recommendations emits one prioritized suggestion per weak component,
// or a single positive note for a strong CV that triggered none.
func recommendations(total float64, b domain.RubricBreakdown) []string {
	var recs []string
	if b.Skills < cutoffSkills {
		recs = append(recs, "Bổ sung thêm kỹ năng chuyên môn vào CV (nêu rõ công nghệ, công cụ đã dùng).")
	}
	if b.Experience < cutoffExperience {
		recs = append(recs, "Mô tả kinh nghiệm làm việc cụ thể hơn, ghi rõ số năm kinh nghiệm.")
	}
	if b.Education < cutoffEducation {
		recs = append(recs, "Bổ sung thông tin học vấn (bằng cấp, trường, chuyên ngành).")
	}
	if b.Strengths < cutoffStrengths {
		recs = append(recs, "Liệt kê thêm điểm mạnh nổi bật phù hợp với vị trí ứng tuyển.")
	}
	if b.Completeness < cutoffCompleteness {
		recs = append(recs, "Hoàn thiện các mục còn thiếu để CV đầy đủ hơn.")
	}
	if len(recs) == 0 && total >= 80 {
		recs = append(recs, "CV của bạn rất tốt, hãy tiếp tục duy trì và cập nhật thường xuyên.")
	}
	return recs
}
