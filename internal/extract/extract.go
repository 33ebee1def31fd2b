// Package extract turns paragraph sequences into questions and
// question/answer pairs. Everything here is a pure function; callers decide
// what to do with the warnings.
package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// QAPair is one question and the answer paragraph that follows it.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// MinAnswerLen is the minimum accepted answer length in characters.
// Anything shorter is treated as a stray fragment, not an answer.
const MinAnswerLen = 10

// minQuestionWords guards against lines like "Yes?" being picked up as
// questionnaire items; real RFP questions are full sentences.
const minQuestionWords = 4

// IsQuestion reports whether a paragraph looks like a questionnaire item:
// it ends with '?' and has more than three words.
func IsQuestion(line string) bool {
	return strings.HasSuffix(line, "?") && len(strings.Fields(line)) >= minQuestionWords
}

// Questions returns the paragraphs of an incoming RFP that look like
// questions, in document order.
func Questions(lines []string) []string {
	var questions []string
	for _, line := range lines {
		if IsQuestion(line) {
			questions = append(questions, line)
		}
	}
	return questions
}

// QAPairs scans paragraphs for "question / immediate answer" layout.
//
// A line ending in '?' is a question candidate; the next line is its answer
// candidate. The pair is accepted only when the answer exists, is at least
// MinAnswerLen characters, and does not itself end in '?'. On acceptance both
// lines are consumed. On rejection only the question line is consumed, so a
// rejected answer line is re-examined as a potential question.
//
// Documents in any other layout yield zero pairs. Returned warnings describe
// each rejected question.
func QAPairs(lines []string) ([]QAPair, []string) {
	var pairs []QAPair
	var warnings []string

	i := 0
	for i < len(lines) {
		question := lines[i]
		if !strings.HasSuffix(question, "?") {
			i++
			continue
		}

		if i+1 >= len(lines) {
			warnings = append(warnings, fmt.Sprintf("question %q has no following paragraph", question))
			i++
			continue
		}

		answer := lines[i+1]
		switch {
		case strings.HasSuffix(answer, "?"):
			warnings = append(warnings, fmt.Sprintf("question %q is followed by another question, no answer", question))
			i++
		case utf8.RuneCountInString(answer) < MinAnswerLen:
			warnings = append(warnings, fmt.Sprintf("question %q has an answer shorter than %d characters", question, MinAnswerLen))
			i++
		default:
			pairs = append(pairs, QAPair{Question: question, Answer: answer})
			i += 2
		}
	}

	return pairs, warnings
}
