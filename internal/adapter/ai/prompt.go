package ai

import (
	"fmt"
	"strings"

	"github.com/quyet5603/DATN-sub002/internal/adapter/ai/tokencount"
	"github.com/quyet5603/DATN-sub002/internal/domain"
	"github.com/quyet5603/DATN-sub002/pkg/textx"
)

// PromptBuilder renders deterministic scoring and analysis prompts.
// Candidate text is capped to a token budget and the job description to a
// character cap so a long CV cannot blow up completion cost.
type PromptBuilder struct {
	schema          MatchSchema
	counter         *tokencount.Counter
	model           string
	cvTokenBudget   int
	jobDescMaxChars int
}

// NewPromptBuilder constructs a PromptBuilder bound to one schema and model.
func NewPromptBuilder(schema MatchSchema, model string, cvTokenBudget, jobDescMaxChars int) *PromptBuilder {
	return &PromptBuilder{
		schema:          schema,
		counter:         tokencount.NewCounter(),
		model:           model,
		cvTokenBudget:   cvTokenBudget,
		jobDescMaxChars: jobDescMaxChars,
	}
}

// Schema returns the schema this builder renders instructions from.
func (b *PromptBuilder) Schema() MatchSchema { return b.schema }

// ScoringPrompt builds the candidate-versus-job scoring prompt.
func (b *PromptBuilder) ScoringPrompt(candidateText string, job domain.JobPosting) string {
	cv := b.counter.Truncate(candidateText, b.model, b.cvTokenBudget)
	desc := textx.CollapseWhitespace(job.Description)
	if b.jobDescMaxChars > 0 && len(desc) > b.jobDescMaxChars {
		desc = desc[:b.jobDescMaxChars]
	}

	var sb strings.Builder
	sb.WriteString("You are an expert recruiter. Score how well the candidate below fits the job.\n\n")
	sb.WriteString("Job:\n")
	fmt.Fprintf(&sb, "- Title: %s\n", job.Title)
	fmt.Fprintf(&sb, "- Location: %s\n", job.Location)
	fmt.Fprintf(&sb, "- Minimum experience: %d years\n", job.MinExperienceYears)
	fmt.Fprintf(&sb, "- Required skills: %s\n", strings.Join(job.RequiredSkills, ", "))
	fmt.Fprintf(&sb, "- Description: %s\n\n", desc)
	fmt.Fprintf(&sb, "Candidate CV:\n%s\n\n", cv)

	sb.WriteString("Scoring rubric (points per dimension):\n")
	for _, d := range b.schema.Dimensions {
		fmt.Fprintf(&sb, "- %s (%q): up to %d points — %s\n", d.Name, d.Field, d.MaxPoints, d.Guidance)
	}
	fmt.Fprintf(&sb, "The %q field is the overall fit on a 0-%d scale.\n\n",
		b.schema.ScoreField, b.schema.TotalPoints())

	sb.WriteString("CRITICAL: Respond with ONLY one valid JSON object, nothing else. Structure:\n")
	sb.WriteString(b.schema.OutputContract())
	sb.WriteString("\n\nRules:\n- No reasoning, explanations, or chain-of-thought\n- No markdown fences\n- All text fields concise and professional")
	return sb.String()
}

// AnalysisPrompt builds the job-free CV analysis prompt used by the
// asynchronous analysis pipeline.
func (b *PromptBuilder) AnalysisPrompt(candidateText string) string {
	cv := b.counter.Truncate(candidateText, b.model, b.cvTokenBudget)

	var sb strings.Builder
	sb.WriteString("You are an expert recruiter. Analyze the CV below and extract its key facts.\n\n")
	fmt.Fprintf(&sb, "CV:\n%s\n\n", cv)
	sb.WriteString("CRITICAL: Respond with ONLY one valid JSON object, nothing else. Structure:\n")
	sb.WriteString(`{
  "skills": ["<skill>"],
  "experience": "<one-paragraph summary of work experience, include years>",
  "education": "<highest education level and field>",
  "strengths": ["<strength>"],
  "weaknesses": ["<weakness>"]
}`)
	sb.WriteString("\n\nRules:\n- No reasoning or chain-of-thought\n- No markdown fences\n- Empty array/string when the CV gives no information")
	return sb.String()
}
