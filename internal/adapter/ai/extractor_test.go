package ai_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quyet5603/DATN-sub002/internal/adapter/ai"
	"github.com/quyet5603/DATN-sub002/internal/domain"
)

const wellFormed = `{
  "score": 72,
  "location_match": {"score": 15, "status": "partial", "detail": "remote ok"},
  "experience_match": {"score": 22, "status": "matched", "detail": "4 years"},
  "skills_match": {"score": 20, "status": "matched", "detail": "go, sql"},
  "education_match": {"score": 15, "status": "matched", "detail": "bachelor"},
  "match_reasons": ["solid backend background"],
  "red_flags": [],
  "suggestions": ["mention kubernetes"],
  "analysis": "A good fit overall."
}`

func TestExtractMatch_WellFormed(t *testing.T) {
	t.Parallel()
	pm, err := ai.ExtractMatch(wellFormed, ai.DefaultMatchSchema())
	require.NoError(t, err)
	require.NotNil(t, pm.Score)
	assert.Equal(t, 72.0, *pm.Score)
	assert.Equal(t, "matched", pm.Dims["skills_match"].Status)
	assert.Equal(t, []string{"solid backend background"}, pm.Reasons)
	assert.Equal(t, "A good fit overall.", pm.Analysis)
}

func TestExtractMatch_JSONBuriedInProse(t *testing.T) {
	t.Parallel()
	raw := "Sure! Here is the evaluation you asked for:\n```json\n" + wellFormed + "\n```\nLet me know if you need anything else."
	pm, err := ai.ExtractMatch(raw, ai.DefaultMatchSchema())
	require.NoError(t, err)
	require.NotNil(t, pm.Score)
	assert.Equal(t, 72.0, *pm.Score)
}

func TestExtractMatch_BracesInsideStrings(t *testing.T) {
	t.Parallel()
	raw := `{"score": 55, "analysis": "uses {generics} and \"interfaces\" heavily"}`
	pm, err := ai.ExtractMatch(raw, ai.DefaultMatchSchema())
	require.NoError(t, err)
	assert.Equal(t, 55.0, *pm.Score)
	assert.Equal(t, `uses {generics} and "interfaces" heavily`, pm.Analysis)
}

func TestExtractMatch_MissingFieldsStayNil(t *testing.T) {
	t.Parallel()
	pm, err := ai.ExtractMatch(`{"skills_match": {"score": 10, "status": "partial"}}`, ai.DefaultMatchSchema())
	require.NoError(t, err)
	assert.Nil(t, pm.Score)
	assert.Len(t, pm.Dims, 1)
	assert.Nil(t, pm.Reasons)
}

func TestExtractMatch_ParseFailures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
	}{
		{"no json at all", "I cannot evaluate this candidate."},
		{"unbalanced braces", `{"score": 70, "analysis": "cut off`},
		{"array not object", `[1, 2, 3]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ai.ExtractMatch(tt.raw, ai.DefaultMatchSchema())
			assert.True(t, errors.Is(err, domain.ErrParseFailure))
		})
	}
}

func TestExtractMatch_SingleStringToleratedAsList(t *testing.T) {
	t.Parallel()
	pm, err := ai.ExtractMatch(`{"score": 60, "match_reasons": "one strong reason"}`, ai.DefaultMatchSchema())
	require.NoError(t, err)
	assert.Equal(t, []string{"one strong reason"}, pm.Reasons)
}

func TestExtractAnalysis(t *testing.T) {
	t.Parallel()
	raw := "```json\n{\"skills\": [\"go\"], \"experience\": \"2 years\", \"education\": \"bachelor\"}\n```"
	a, err := ai.ExtractAnalysis(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, a.Skills)
	assert.Equal(t, "2 years", a.Experience)

	_, err = ai.ExtractAnalysis("no object here")
	assert.True(t, errors.Is(err, domain.ErrParseFailure))
}
