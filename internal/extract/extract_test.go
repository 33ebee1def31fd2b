package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsQuestion(t *testing.T) {
	assert.True(t, IsQuestion("What security certifications does your firm hold?"))
	assert.False(t, IsQuestion("Our firm holds SOC 2 Type II certification."))
	// Short interjections are not questionnaire items.
	assert.False(t, IsQuestion("Yes?"))
	assert.False(t, IsQuestion("Are you sure?"))
	// Four words is the boundary: that already counts as a question.
	assert.True(t, IsQuestion("Really, are you sure?"))
	assert.False(t, IsQuestion(""))
}

func TestQuestionsPreservesOrder(t *testing.T) {
	lines := []string{
		"Section 1: Security",
		"What security certifications does your firm hold?",
		"Please answer all questions below.",
		"How do you manage third-party vendor risk today?",
	}

	got := Questions(lines)
	require.Len(t, got, 2)
	assert.Equal(t, "What security certifications does your firm hold?", got[0])
	assert.Equal(t, "How do you manage third-party vendor risk today?", got[1])
}

func TestQAPairsRoundTrip(t *testing.T) {
	lines := []string{
		"Q1?",
		"A1 answer text here.",
		"Q2?",
		"A2 answer text here.",
	}

	pairs, warnings := QAPairs(lines)
	require.Len(t, pairs, 2)
	assert.Empty(t, warnings)
	assert.Equal(t, QAPair{Question: "Q1?", Answer: "A1 answer text here."}, pairs[0])
	assert.Equal(t, QAPair{Question: "Q2?", Answer: "A2 answer text here."}, pairs[1])
}

func TestQAPairsRejectsShortAnswer(t *testing.T) {
	pairs, warnings := QAPairs([]string{"Q1?", "Too short", "more text follows"})

	assert.Empty(t, pairs)
	require.Len(t, warnings, 1)
}

func TestQAPairsConsecutiveQuestions(t *testing.T) {
	// The rejected answer line is itself a question and must be re-examined,
	// so the second pair still comes out.
	lines := []string{
		"Q1?",
		"Q2?",
		"A2 answer text here.",
	}

	pairs, warnings := QAPairs(lines)
	require.Len(t, pairs, 1)
	assert.Equal(t, "Q2?", pairs[0].Question)
	assert.Equal(t, "A2 answer text here.", pairs[0].Answer)
	require.Len(t, warnings, 1)
}

func TestQAPairsTrailingQuestion(t *testing.T) {
	pairs, warnings := QAPairs([]string{"A lonely trailing question?"})

	assert.Empty(t, pairs)
	require.Len(t, warnings, 1)
}

func TestQAPairsSkipsProse(t *testing.T) {
	lines := []string{
		"Introduction paragraph without any question.",
		"Q1?",
		"A1 answer text here.",
		"Closing remarks.",
	}

	pairs, warnings := QAPairs(lines)
	require.Len(t, pairs, 1)
	assert.Empty(t, warnings)
}

func TestQAPairsBoundaryAnswerLength(t *testing.T) {
	// Exactly MinAnswerLen characters is accepted.
	pairs, warnings := QAPairs([]string{"Q1?", "1234567890"})
	require.Len(t, pairs, 1)
	assert.Empty(t, warnings)

	pairs, warnings = QAPairs([]string{"Q1?", "123456789"})
	assert.Empty(t, pairs)
	require.Len(t, warnings, 1)
}
