package draft

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfp-assist/backend/internal/vector"
)

func TestComposeEmptyMatches(t *testing.T) {
	s := NewSynthesizer(DefaultConfig())

	result := s.Compose(nil)
	assert.Equal(t, SentinelNoMatches, result.Text)
	assert.Empty(t, result.UsedAnswers)
}

func TestComposeAllFiltered(t *testing.T) {
	s := NewSynthesizer(DefaultConfig())

	result := s.Compose([]vector.Match{
		{Score: 0.9, Answer: "What certifications do you hold?", Source: "old.docx"},
		{Score: 0.8, Answer: "short", Source: "old.docx"},
	})
	assert.Equal(t, SentinelAllFiltered, result.Text)
	assert.Empty(t, result.UsedAnswers)
}

func TestComposeFormatsSourceHeaders(t *testing.T) {
	s := NewSynthesizer(DefaultConfig())

	result := s.Compose([]vector.Match{
		{Score: 0.91, Answer: "We hold SOC 2 Type II certification.", Source: "rfp_2023.docx"},
		{Score: 0.75, Answer: "Our ISO 27001 certification was renewed last year.", Source: "rfp_2022.docx"},
	})

	assert.Equal(t,
		"[Source: rfp_2023.docx | Score: 0.91]\n"+
			"We hold SOC 2 Type II certification.\n\n"+
			"[Source: rfp_2022.docx | Score: 0.75]\n"+
			"Our ISO 27001 certification was renewed last year.",
		result.Text)
	require.Len(t, result.UsedAnswers, 2)
	assert.Equal(t, "We hold SOC 2 Type II certification.", result.UsedAnswers[0])
}

func TestComposeDropsQuestionLikeMatches(t *testing.T) {
	s := NewSynthesizer(DefaultConfig())

	result := s.Compose([]vector.Match{
		{Score: 0.95, Answer: "Do you provide audited financial statements to clients?", Source: "a.docx"},
		{Score: 0.70, Answer: "Audited statements are provided annually to all clients.", Source: "b.docx"},
	})

	require.Len(t, result.UsedAnswers, 1)
	assert.NotContains(t, result.Text, "Do you provide")
}

func TestEmptyConfigFallsBackToDefaults(t *testing.T) {
	s := NewSynthesizer(Config{})

	// The default prefix filter must survive a zero-value config, same as
	// the length and question-mark knobs.
	result := s.Compose([]vector.Match{
		{Score: 0.9, Answer: "Please describe the controls applied to client data here", Source: "a.docx"},
	})
	assert.Equal(t, SentinelAllFiltered, result.Text)
	assert.True(t, s.questionLike("tiny"))
}

func TestQuestionLikeRules(t *testing.T) {
	s := NewSynthesizer(DefaultConfig())

	assert.True(t, s.questionLike("Does this end with a question mark?"))
	assert.True(t, s.questionLike("tiny"))
	assert.True(t, s.questionLike("What certifications apply to this engagement today"))
	assert.True(t, s.questionLike("Is it? Was it? Will it? None of these are answers."))
	assert.False(t, s.questionLike("Our compliance program covers all three frameworks."))
	// Two embedded question marks are tolerated.
	assert.False(t, s.questionLike(strings.Repeat("Real answer text. ", 3)+"(why? how?)"))
}
