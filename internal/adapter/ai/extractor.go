package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/quyet5603/DATN-sub002/internal/domain"
)

// ExtractMatch parses a raw completion into a PartialMatch using the
// field names of the given schema. The model may wrap its JSON in
// commentary or markdown despite instructions, so the first balanced
// {...} region is located and parsed. A missing or unparsable region
// yields domain.ErrParseFailure — an expected outcome the normalizer
// turns into a neutral result, never an exception to the caller.
func ExtractMatch(raw string, schema MatchSchema) (PartialMatch, error) {
	region, ok := jsonRegion(raw)
	if !ok {
		return PartialMatch{}, fmt.Errorf("%w: no JSON object in completion", domain.ErrParseFailure)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(region), &obj); err != nil {
		return PartialMatch{}, fmt.Errorf("%w: %v", domain.ErrParseFailure, err)
	}

	pm := PartialMatch{Dims: make(map[string]PartialSub, len(schema.Dimensions))}
	if v, ok := obj[schema.ScoreField]; ok {
		var f float64
		if err := json.Unmarshal(v, &f); err == nil {
			pm.Score = &f
		}
	}
	for _, d := range schema.Dimensions {
		v, ok := obj[d.Field]
		if !ok {
			continue
		}
		var sub PartialSub
		if err := json.Unmarshal(v, &sub); err == nil {
			pm.Dims[d.Field] = sub
		}
	}
	pm.Reasons = stringList(obj[schema.ReasonsField])
	pm.RedFlags = stringList(obj[schema.RedFlagsField])
	pm.Suggestions = stringList(obj[schema.SuggestionsField])
	if v, ok := obj[schema.AnalysisField]; ok {
		_ = json.Unmarshal(v, &pm.Analysis)
	}
	return pm, nil
}

// ExtractAnalysis parses a raw completion from the analysis prompt into
// a CVAnalysis, with the same region-location tolerance as ExtractMatch.
func ExtractAnalysis(raw string) (domain.CVAnalysis, error) {
	region, ok := jsonRegion(raw)
	if !ok {
		return domain.CVAnalysis{}, fmt.Errorf("%w: no JSON object in completion", domain.ErrParseFailure)
	}
	var a domain.CVAnalysis
	if err := json.Unmarshal([]byte(region), &a); err != nil {
		return domain.CVAnalysis{}, fmt.Errorf("%w: %v", domain.ErrParseFailure, err)
	}
	return a, nil
}

// jsonRegion returns the first balanced {...} region of s after stripping
// markdown fences, or ok=false when none exists.
func jsonRegion(s string) (string, bool) {
	s = stripMarkdownFences(s)
	start := strings.Index(s, "{")
	if start == -1 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// stringList tolerates both a JSON array of strings and a single string.
func stringList(v json.RawMessage) []string {
	if len(v) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(v, &list); err == nil {
		return list
	}
	var single string
	if err := json.Unmarshal(v, &single); err == nil && single != "" {
		return []string{single}
	}
	return nil
}
