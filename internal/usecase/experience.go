package usecase

import (
	"regexp"
	"strconv"
	"strings"
)

// yearPattern matches "<number> years", "<number> yrs" and the
// Vietnamese "<number> năm". CVs routinely mix both languages.
var yearPattern = regexp.MustCompile(`(?i)(\d{1,2})\s*\+?\s*(?:years?|yrs?|năm)`)

// MaxExperienceYears extracts every year-count from the experience text
// and returns the maximum, with found=false when no count appears.
func MaxExperienceYears(text string) (int, bool) {
	matches := yearPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0, false
	}
	maxYears := 0
	for _, m := range matches {
		if n, err := strconv.Atoi(m[1]); err == nil && n > maxYears {
			maxYears = n
		}
	}
	return maxYears, true
}

// MentionsNoExperience reports whether the text explicitly declares the
// candidate has no professional experience.
func MentionsNoExperience(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range rubricVocab().NoExperienceKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
