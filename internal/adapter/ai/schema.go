// Package ai holds the model-facing contract of the matching pipeline:
// the scoring schema shared by the prompt builder and the result
// extractor, and the best-effort JSON extraction over raw completions.
package ai

import (
	"fmt"
	"strings"
)

// Dimension is one scored dimension of the match schema. The Field name
// and MaxPoints appear verbatim in the prompt instructions and are the
// same names the extractor reads back, so prompt and parser cannot drift.
type Dimension struct {
	Name      string
	Field     string
	MaxPoints int
	Guidance  string
}

// MatchSchema is the single definition of the model output contract.
type MatchSchema struct {
	ScoreField       string
	Dimensions       []Dimension
	ReasonsField     string
	RedFlagsField    string
	SuggestionsField string
	AnalysisField    string
}

// DefaultMatchSchema returns the scoring contract used by the pipeline.
// Dimension budgets sum to 100.
func DefaultMatchSchema() MatchSchema {
	return MatchSchema{
		ScoreField: "score",
		Dimensions: []Dimension{
			{Name: "Location", Field: "location_match", MaxPoints: 20,
				Guidance: "same city/region or candidate open to relocation"},
			{Name: "Experience", Field: "experience_match", MaxPoints: 30,
				Guidance: "years of relevant experience versus the job minimum"},
			{Name: "Skills", Field: "skills_match", MaxPoints: 30,
				Guidance: "overlap between candidate skills and required skills"},
			{Name: "Education", Field: "education_match", MaxPoints: 20,
				Guidance: "degree level and field relevance"},
		},
		ReasonsField:     "match_reasons",
		RedFlagsField:    "red_flags",
		SuggestionsField: "suggestions",
		AnalysisField:    "analysis",
	}
}

// TotalPoints returns the sum of all dimension budgets.
func (s MatchSchema) TotalPoints() int {
	total := 0
	for _, d := range s.Dimensions {
		total += d.MaxPoints
	}
	return total
}

// OutputContract renders the strict JSON shape the model must return.
func (s MatchSchema) OutputContract() string {
	var b strings.Builder
	b.WriteString("{\n")
	fmt.Fprintf(&b, "  %q: <number 0-%d>,\n", s.ScoreField, s.TotalPoints())
	for _, d := range s.Dimensions {
		fmt.Fprintf(&b, "  %q: {\"score\": <number 0-%d>, \"status\": \"matched|partial|not_matched\", \"detail\": \"<short reason>\"},\n",
			d.Field, d.MaxPoints)
	}
	fmt.Fprintf(&b, "  %q: [\"<reason>\"],\n", s.ReasonsField)
	fmt.Fprintf(&b, "  %q: [\"<red flag>\"],\n", s.RedFlagsField)
	fmt.Fprintf(&b, "  %q: [\"<suggestion>\"],\n", s.SuggestionsField)
	fmt.Fprintf(&b, "  %q: \"<2-3 sentence summary>\"\n", s.AnalysisField)
	b.WriteString("}")
	return b.String()
}

// PartialSub is one dimension as the model returned it. Score is a pointer
// so a missing value is distinguishable from zero; defaulting happens in
// the normalizer, not here.
type PartialSub struct {
	Score  *float64 `json:"score"`
	Status string   `json:"status"`
	Detail string   `json:"detail"`
}

// PartialMatch is the loosely-typed result of extraction. Every field the
// model might omit is optional; the normalizer owns defaulting.
type PartialMatch struct {
	Score       *float64
	Dims        map[string]PartialSub
	Reasons     []string
	RedFlags    []string
	Suggestions []string
	Analysis    string
}
