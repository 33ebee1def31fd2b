package draft

import (
	"fmt"

	"github.com/rfp-assist/backend/internal/vector"
)

// DefaultReviewThreshold is the similarity score below which a draft is
// routed to human review.
const DefaultReviewThreshold = 0.60

// ReviewGate is the threshold decision between auto-accept and
// flag-for-review. A plain total-order comparison, no hysteresis.
type ReviewGate struct {
	Threshold float32
}

func NewReviewGate(threshold float32) ReviewGate {
	if threshold == 0 {
		threshold = DefaultReviewThreshold
	}
	return ReviewGate{Threshold: threshold}
}

// Evaluate returns the top match score (0.0 when there are no matches) and
// whether the draft needs review. Matches arrive score-descending from the
// search gateway, so the first entry is the top score.
func (g ReviewGate) Evaluate(matches []vector.Match) (topScore float32, needsReview bool) {
	if len(matches) == 0 {
		return 0.0, true
	}
	topScore = matches[0].Score
	return topScore, topScore < g.Threshold
}

// Mark prefixes a draft with a visible review banner carrying the score.
func (g ReviewGate) Mark(draftText string, topScore float32) string {
	return fmt.Sprintf("[! Needs review: low similarity score (%.2f)]\n\n%s", topScore, draftText)
}
