package ai_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quyet5603/DATN-sub002/internal/adapter/ai"
	"github.com/quyet5603/DATN-sub002/internal/domain"
)

func testJob() domain.JobPosting {
	return domain.JobPosting{
		ID:                 "job-1",
		Title:              "Backend Engineer",
		Location:           "Ha Noi",
		Description:        "Build   Go services\n\nfor the hiring platform.",
		MinExperienceYears: 2,
		RequiredSkills:     []string{"go", "postgresql"},
	}
}

func TestScoringPrompt_Deterministic(t *testing.T) {
	t.Parallel()
	b := ai.NewPromptBuilder(ai.DefaultMatchSchema(), "gpt-4", 1500, 2000)
	first := b.ScoringPrompt("ten years of Go experience", testJob())
	second := b.ScoringPrompt("ten years of Go experience", testJob())
	assert.Equal(t, first, second)
}

func TestScoringPrompt_CarriesJobAndContract(t *testing.T) {
	t.Parallel()
	b := ai.NewPromptBuilder(ai.DefaultMatchSchema(), "gpt-4", 1500, 2000)
	p := b.ScoringPrompt("ten years of Go experience", testJob())

	assert.Contains(t, p, "Backend Engineer")
	assert.Contains(t, p, "go, postgresql")
	assert.Contains(t, p, "Build Go services for the hiring platform.", "description whitespace collapsed")
	for _, field := range []string{"location_match", "experience_match", "skills_match", "education_match"} {
		assert.Contains(t, p, field)
	}
	assert.Contains(t, p, `"score": <number 0-100>`)
}

func TestScoringPrompt_CapsLongInputs(t *testing.T) {
	t.Parallel()
	b := ai.NewPromptBuilder(ai.DefaultMatchSchema(), "gpt-4", 50, 100)

	job := testJob()
	job.Description = strings.Repeat("responsibility ", 200)
	longCV := strings.Repeat("backend development with Go and Postgres ", 400)
	p := b.ScoringPrompt(longCV, job)

	assert.Less(t, len(p), len(longCV), "prompt must not carry the full CV")
	assert.Less(t, len(p), 3000)
}

func TestMatchSchema_BudgetsSumTo100(t *testing.T) {
	t.Parallel()
	s := ai.DefaultMatchSchema()
	require.Len(t, s.Dimensions, 4)
	assert.Equal(t, 100, s.TotalPoints())
	assert.Equal(t, 20, s.Dimensions[0].MaxPoints)
	assert.Equal(t, 30, s.Dimensions[1].MaxPoints)
	assert.Equal(t, 30, s.Dimensions[2].MaxPoints)
	assert.Equal(t, 20, s.Dimensions[3].MaxPoints)
}

func TestAnalysisPrompt_ContainsContract(t *testing.T) {
	t.Parallel()
	b := ai.NewPromptBuilder(ai.DefaultMatchSchema(), "gpt-4", 1500, 2000)
	p := b.AnalysisPrompt("three years of Go experience")
	assert.Contains(t, p, `"skills"`)
	assert.Contains(t, p, `"weaknesses"`)
	assert.Contains(t, p, "three years of Go experience")
}
