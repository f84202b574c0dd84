// Package stub provides a deterministic completion client for local
// development and tests, so the service runs without any LLM endpoint.
package stub

import (
	"encoding/json"
	"hash/fnv"
	"strings"

	"github.com/quyet5603/DATN-sub002/internal/domain"
)

// Client returns canned completions derived from the prompt content.
// The same prompt always yields the same completion.
type Client struct{}

func New() *Client { return &Client{} }

// Complete recognizes the two prompt families by their instructions and
// returns a well-formed JSON object for each.
func (c *Client) Complete(_ domain.Context, prompt string) (string, error) {
	if strings.Contains(prompt, `"skills"`) && !strings.Contains(prompt, "rubric") {
		return analysisCompletion(), nil
	}
	return scoringCompletion(prompt), nil
}

func scoringCompletion(prompt string) string {
	// Hash the prompt so different candidate/job pairs get different but
	// stable scores in the 40..90 band.
	h := fnv.New32a()
	_, _ = h.Write([]byte(prompt))
	score := 40 + float64(h.Sum32()%51)

	out := map[string]any{
		"score": score,
		"location_match": map[string]any{
			"score": 15.0, "status": "partial", "detail": "nearby region",
		},
		"experience_match": map[string]any{
			"score": score * 0.3, "status": "matched", "detail": "meets the minimum",
		},
		"skills_match": map[string]any{
			"score": score * 0.3, "status": "matched", "detail": "core skills overlap",
		},
		"education_match": map[string]any{
			"score": 15.0, "status": "matched", "detail": "relevant degree",
		},
		"match_reasons": []string{"stub evaluation"},
		"red_flags":     []string{},
		"suggestions":   []string{"configure a real completion endpoint"},
		"analysis":      "Deterministic stub result for local development.",
	}
	b, _ := json.Marshal(out)
	return string(b)
}

func analysisCompletion() string {
	out := map[string]any{
		"skills":     []string{"Go", "SQL", "Docker"},
		"experience": "3 years of backend development experience.",
		"education":  "Bachelor of Computer Science",
		"strengths":  []string{"solid fundamentals"},
		"weaknesses": []string{"limited cloud exposure"},
	}
	b, _ := json.Marshal(out)
	return string(b)
}
