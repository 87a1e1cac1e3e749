package prefilter

import (
	"math"

	"github.com/MikeSquared-Agency/scout/internal/patterns"
	"github.com/MikeSquared-Agency/scout/internal/transcript"
)

// NeedsHelpScore rates how likely a message is a request for help, in [0,1]
// rounded to two decimals. Problem intent and problem statement overlap, so
// only the larger of the two counts.
func NeedsHelpScore(msg transcript.ChatMessage) float32 {
	text := msg.Text
	score := 0.0

	var intent, statement float64
	if HasProblemIntent(text) {
		intent = 0.45
	}
	if HasProblemStatement(text) {
		statement = 0.35
	}
	score += math.Max(intent, statement)

	if IsGenuineQuestion(text) {
		score += 0.20
	}
	if HasTechnicalKeywords(text) {
		score += 0.15
	}
	if patterns.TechScore.MatchString(text) {
		score += 0.10
	}
	if wordCount(text) > patterns.LongMessageWords {
		score += 0.10
	}
	if patterns.Builder.MatchString(text) {
		score += 0.10
	}
	if IsHelper(text) {
		score -= 0.25
	}
	if IsReply(text) {
		score -= 0.15
	}
	if ResolveRole(msg.Username, msg.Role) == RoleAdmin {
		score -= 0.20
	}

	score = math.Max(0, math.Min(score, 1))
	return float32(math.Round(score*100) / 100)
}
