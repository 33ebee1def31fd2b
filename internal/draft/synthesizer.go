// Package draft assembles retrieved answers into a draft response and
// decides whether it needs human review.
package draft

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rfp-assist/backend/internal/vector"
)

// Sentinel drafts. The two cases are kept distinct so reviewers can tell
// "nothing in the knowledge base" from "the knowledge base returned junk".
const (
	SentinelNoMatches   = "No relevant information found in the database."
	SentinelAllFiltered = "Matches were found, but they had no usable content."
)

// Config carries the question-likeness heuristics as data; the prefix list
// is English-only and belongs in configuration, not code.
type Config struct {
	QuestionPrefixes []string
	MinAnswerLen     int
	MaxQuestionMarks int
}

func DefaultConfig() Config {
	return Config{
		QuestionPrefixes: []string{
			"What ", "How ", "Why ", "When ", "Where ", "Which ", "Who ",
			"Do you", "Does ", "Is ", "Are ", "Can ", "Could ", "Would ", "Will ",
			"Please provide", "Please describe", "Please explain",
			"Describe ", "Explain ", "List ",
		},
		MinAnswerLen:     20,
		MaxQuestionMarks: 2,
	}
}

// Synthesizer composes drafts from scored matches. It is a pure function of
// its inputs and the configured filter rules.
type Synthesizer struct {
	cfg Config
}

func NewSynthesizer(cfg Config) *Synthesizer {
	if cfg.MinAnswerLen == 0 {
		cfg.MinAnswerLen = 20
	}
	if cfg.MaxQuestionMarks == 0 {
		cfg.MaxQuestionMarks = 2
	}
	if len(cfg.QuestionPrefixes) == 0 {
		cfg.QuestionPrefixes = DefaultConfig().QuestionPrefixes
	}
	return &Synthesizer{cfg: cfg}
}

// Result is a composed draft plus the answer texts that survived filtering,
// in score-descending order.
type Result struct {
	Text        string
	UsedAnswers []string
}

// Compose concatenates the usable match texts in score-descending order,
// each under a source/score header. Matches whose text reads like a question
// rather than an answer are dropped.
func (s *Synthesizer) Compose(matches []vector.Match) Result {
	if len(matches) == 0 {
		return Result{Text: SentinelNoMatches}
	}

	var b strings.Builder
	var used []string

	for _, m := range matches {
		if m.Answer == "" || s.questionLike(m.Answer) {
			continue
		}
		b.WriteString(fmt.Sprintf("[Source: %s | Score: %.2f]\n%s\n\n", m.Source, m.Score, m.Answer))
		used = append(used, m.Answer)
	}

	if len(used) == 0 {
		return Result{Text: SentinelAllFiltered}
	}

	return Result{Text: strings.TrimSpace(b.String()), UsedAnswers: used}
}

// questionLike rejects stored texts that are themselves questions: legacy
// collections contain question paragraphs embedded alongside answers.
func (s *Synthesizer) questionLike(text string) bool {
	if strings.HasSuffix(text, "?") {
		return true
	}
	if utf8.RuneCountInString(text) < s.cfg.MinAnswerLen {
		return true
	}
	if strings.Count(text, "?") > s.cfg.MaxQuestionMarks {
		return true
	}
	for _, prefix := range s.cfg.QuestionPrefixes {
		if strings.HasPrefix(text, prefix) {
			return true
		}
	}
	return false
}
