package prefilter

import (
	"strings"

	"github.com/MikeSquared-Agency/scout/internal/blacklist"
	"github.com/MikeSquared-Agency/scout/internal/patterns"
	"github.com/MikeSquared-Agency/scout/internal/transcript"
)

// RoleAdmin is the resolved role for staff, moderators and community champions.
const RoleAdmin = "admin"

func HasTechnicalKeywords(text string) bool {
	return patterns.Any(patterns.Technical, text)
}

// RejectKeyword returns the rejection reason for text, or "".
func RejectKeyword(text string) string {
	if re := patterns.First(patterns.Reject, text); re != nil {
		return "keyword:" + patterns.Source(re)
	}
	return ""
}

func IsReply(text string) bool {
	return patterns.Any(patterns.Reply, strings.TrimSpace(text))
}

func IsHelper(text string) bool {
	return patterns.Any(patterns.Helper, strings.TrimSpace(text))
}

func HasQuestionIndicators(text string) bool {
	return patterns.Any(patterns.Question, text)
}

// IsGenuineQuestion is stricter than HasQuestionIndicators: a literal
// question mark, technical wording plus a request for help, or a problem report.
func IsGenuineQuestion(text string) bool {
	if strings.Contains(text, "?") {
		return true
	}
	if HasTechnicalKeywords(text) {
		lower := strings.ToLower(text)
		for _, w := range []string{"help", "how", "anyone", "can someone"} {
			if strings.Contains(lower, w) {
				return true
			}
		}
	}
	return patterns.Any(patterns.Problem, text)
}

// HasProblemIntent requires a technical keyword alongside the intent pattern.
func HasProblemIntent(text string) bool {
	if !HasTechnicalKeywords(text) {
		return false
	}
	return patterns.Any(patterns.ProblemIntent, text)
}

func HasProblemStatement(text string) bool {
	return patterns.ProblemStatement.MatchString(text)
}

func IsTooShort(text string) bool {
	return wordCount(text) < patterns.MinWords
}

func IsObviousSpam(text string) bool {
	return patterns.Any(patterns.Spam, text) || patterns.Any(patterns.Bragging, text)
}

// ResolveRole returns RoleAdmin when the username or role line names a
// staff role, else "".
func ResolveRole(username, role string) string {
	if patterns.AdminRole.MatchString(username + " " + role) {
		return RoleAdmin
	}
	return ""
}

// DetectUserType classifies a single message's author. It returns "" when
// the message carries no archetype signal.
func DetectUserType(msg transcript.ChatMessage) blacklist.Category {
	text := msg.Text
	switch {
	case patterns.AdminUsername.MatchString(msg.Username), patterns.AdminRole.MatchString(msg.Role):
		return blacklist.CategoryAdmin
	case IsObviousSpam(text):
		return blacklist.CategorySpammer
	case HasTechnicalKeywords(text), IsGenuineQuestion(text), HasProblemIntent(text):
		// Technical posts are never blacklisted on content.
		if IsHelper(text) {
			return blacklist.CategoryHelper
		}
		return ""
	case patterns.Any(patterns.Admin, text):
		return blacklist.CategoryAdmin
	case patterns.Any(patterns.Recruiter, text):
		return blacklist.CategoryRecruiter
	case IsHelper(text):
		return blacklist.CategoryHelper
	}
	return ""
}

// AnalyzeBehavior classifies a user from all of their messages in a batch.
func AnalyzeBehavior(msgs []transcript.ChatMessage, username string) blacklist.Category {
	var total, technical, helpful int
	for _, m := range msgs {
		if m.Username != username {
			continue
		}
		total++
		if HasTechnicalKeywords(m.Text) {
			technical++
		}
		if IsHelper(m.Text) {
			helpful++
		}
		if IsReply(m.Text) {
			helpful++
		}
	}
	if total == 0 {
		return ""
	}

	if total > patterns.SpamMessageThreshold && technical < patterns.SpamMinTechnical {
		return blacklist.CategorySpammer
	}

	ratio := float64(helpful) / float64(total)
	if ratio > patterns.HelperReplyRatio && total >= patterns.HelperMinMessages {
		return blacklist.CategoryHelper
	}
	return ""
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}
