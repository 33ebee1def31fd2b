package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeProbesAnswerFieldsInOrder(t *testing.T) {
	n := DefaultNormalizer()

	m := n.Normalize(0.8, map[string]interface{}{
		"text":   "fallback text",
		"answer": "primary answer",
	})
	assert.Equal(t, "primary answer", m.Answer)

	m = n.Normalize(0.8, map[string]interface{}{
		"text_content": "oldest schema",
		"text":         "middle schema",
	})
	assert.Equal(t, "middle schema", m.Answer)
}

func TestNormalizeSkipsBlankFields(t *testing.T) {
	n := DefaultNormalizer()

	m := n.Normalize(0.8, map[string]interface{}{
		"answer": "   ",
		"text":   "usable",
	})
	assert.Equal(t, "usable", m.Answer)
}

func TestNormalizeSourceFallback(t *testing.T) {
	n := DefaultNormalizer()

	m := n.Normalize(0.8, map[string]interface{}{
		"answer":      "a",
		"source_file": "rfp_2021.docx",
	})
	assert.Equal(t, "rfp_2021.docx", m.Source)

	m = n.Normalize(0.8, map[string]interface{}{"answer": "a"})
	assert.Equal(t, UnknownSource, m.Source)
}

func TestNormalizeCarriesScoreQuestionAndPayload(t *testing.T) {
	n := DefaultNormalizer()
	payload := map[string]interface{}{
		"answer":   "a",
		"question": " What is your uptime SLA? ",
	}

	m := n.Normalize(0.73, payload)
	assert.InDelta(t, 0.73, m.Score, 1e-6)
	assert.Equal(t, "What is your uptime SLA?", m.Question)
	assert.Equal(t, payload, m.Payload)
}
