package vector

import "strings"

// UnknownSource is the source label when no payload field yields one.
const UnknownSource = "Unknown"

// Normalizer folds the payload schema drift accumulated across dataset
// generations (answer vs text vs text_content, source vs source_file) into
// one canonical Match at the gateway boundary, so nothing downstream probes
// field names again.
type Normalizer struct {
	AnswerFields []string
	SourceFields []string
}

// DefaultNormalizer matches every payload shape observed in past collections.
func DefaultNormalizer() Normalizer {
	return Normalizer{
		AnswerFields: []string{"answer", "text", "text_content"},
		SourceFields: []string{"source", "source_file"},
	}
}

// Normalize builds a Match from a raw scored payload.
func (n Normalizer) Normalize(score float32, payload map[string]interface{}) Match {
	m := Match{
		Score:   score,
		Source:  UnknownSource,
		Payload: payload,
	}

	if text := probe(payload, n.AnswerFields); text != "" {
		m.Answer = text
	}
	if src := probe(payload, n.SourceFields); src != "" {
		m.Source = src
	}
	if q, ok := payload["question"].(string); ok {
		m.Question = strings.TrimSpace(q)
	}

	return m
}

// probe returns the first non-empty trimmed string among fields.
func probe(payload map[string]interface{}, fields []string) string {
	for _, field := range fields {
		if v, ok := payload[field].(string); ok {
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		}
	}
	return ""
}
