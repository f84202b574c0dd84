package usecase

import (
	_ "embed"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed rubric_vocab.yaml
var rubricVocabYAML []byte

// educationLevel is one rung of the education ladder.
type educationLevel struct {
	Score    float64  `yaml:"score"`
	Keywords []string `yaml:"keywords"`
}

// vocab holds the keyword vocabularies the rubric matches against.
type vocab struct {
	EducationLevels      []educationLevel `yaml:"education_levels"`
	NoExperienceKeywords []string         `yaml:"no_experience_keywords"`
}

var (
	vocabOnce   sync.Once
	loadedVocab vocab
)

// rubricVocab lazily parses the embedded vocabulary. The file ships
// inside the binary, so a parse failure is a programming error.
func rubricVocab() vocab {
	vocabOnce.Do(func() {
		if err := yaml.Unmarshal(rubricVocabYAML, &loadedVocab); err != nil {
			panic("usecase: invalid embedded rubric vocabulary: " + err.Error())
		}
	})
	return loadedVocab
}
