// Package patterns holds the compiled regular expressions and thresholds used
// by the transcript parser and the pre-filter. It carries no state.
package patterns

import (
	"regexp"
	"strings"
)

const (
	// SpamMessageThreshold is the message count above which a user with too
	// few technical messages is treated as a spammer.
	SpamMessageThreshold = 8
	// SpamMinTechnical is the number of technical messages a prolific user
	// needs to escape the spammer verdict.
	SpamMinTechnical = 2
	// HelperReplyRatio is the share of helper/reply messages above which a
	// user is reported as a helper.
	HelperReplyRatio = 0.7
	// HelperMinMessages is the minimum sample for the helper ratio.
	HelperMinMessages = 3
	// MinWords is the word count under which a message counts as short.
	MinWords = 5
	// LongMessageWords is the word count above which a message earns the
	// length bonus in the needs-help score.
	LongMessageWords = 25
)

func ci(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + expr)
}

// Technical keywords. A match protects a message from the general-comment
// rule and from content-based blacklisting.
var Technical = []*regexp.Regexp{
	ci(`\bsupabase\b`),
	ci(`\bdatabase\b`),
	ci(`\bpostgres\b`),
	ci(`\bapi\b`),
	ci(`\berror\b.*\blog\b`),
	ci(`\bfailed\s+to\s+get\b`),
	ci(`\bcache\s+(loop|error|issue)\b`),
	ci(`\bbiometric\b.*\blogin\b`),
	ci(`\brpc\s+function`),
	ci(`\bdataflow\b`),
	ci(`\bbackup\b.*\bdatabase\b`),
	ci(`\bauth\b.*\b(error|issue|problem)\b`),
	ci(`\breact\b.*\b(native|capacitor)\b`),
	ci(`\bshopify\b`),
	ci(`\bstripe\b`),
	ci(`\brealtime\b`),
	ci(`\breplication\s+slot\b`),
}

// Reject keywords reject a message outright.
var Reject = []*regexp.Regexp{
	ci(`\blovable\b.*(scam|garbage|trash|bullshit)`),
	ci(`\bcredits?\b.*(stole|stealing|robbed)`),
	ci(`\bmake\s+money\s+(fast|easy|now)\b`),
	ci(`\bget\s+rich\s+quick\b`),
}

// Admin content patterns.
var Admin = []*regexp.Regexp{
	ci(`(Ikona roli|Role icon),?\s+(Lovable Staff|Community Champion|Moderator)`),
	ci(`^(AdminBot|Lovable\s+Mod|Dyno)\b`),
	ci(`@(everyone|here)`),
}

var Spam = []*regexp.Regexp{
	ci(`\bcheck\s+out\s+my\b.*\b(website|tool|app)\b.*\b(now|today|link)\b`),
	ci(`\bsubscribe\s+(to\s+)?(my|our)\b.*\b(channel|newsletter)\b`),
	ci(`\bfollow\s+me\s+(on|at)\b.*\b(instagram|twitter|youtube)\b`),
	ci(`\blink\s+in\s+bio\b`),
	ci(`(discord\.gg|bit\.ly|t\.me)/\w+.*\bjoin\b`),
	ci(`\b(buy|purchase|order)\s+now\b.*\blimited\b`),
	ci(`\bfree\s+(trial|download)\b.*\b(today only|limited time)\b`),
	ci(`\bjoin\s+my\s+launch\b.*\b(live|going live|hours?)\b`),
	ci(`\bproduct\s+hunt\b.*\b(live|launch|vote)\b`),
}

var Bragging = []*regexp.Regexp{
	ci(`\bmade\s+\$?\d+k\b.*\bthanks\s+to\s+(lovable|the\s+team)\b`),
	ci(`\$\d+M\s+a\s+month\b.*\bdownloads\b`),
}

var Recruiter = []*regexp.Regexp{
	ci(`\b(hiring|recruiting)\b.*\b(developer|engineer|designer)\b`),
	ci(`\bwe'?re\s+looking\s+for\b.*\b(developer|engineer|team member)\b`),
	ci(`\bjoin\s+(our|my)\s+team\b`),
	ci(`\bapply\s+now\b.*\b(job|position|role)\b`),
}

// Helper patterns mark users answering other people's questions.
var Helper = []*regexp.Regexp{
	ci(`^(sure|okay|yes),?\s+(dm|i can help)`),
	ci(`\blet\s+me\s+(help|check|look)\b`),
	ci(`\bhave\s+a\s+look\b`),
	ci(`\bsend\s+me\s+a\s+dm\b`),
	ci(`\bdm\s*!\s*$`),
	ci(`\bi\s+have\s+had\s+that\s+issue\b`),
	ci(`\byou\s+need\s+to\b`),
	ci(`\bwhat\s+troubles?\s+(are\s+you|do\s+you)\b`),
	ci(`\bwhat\s+(issue|problem)\s+are\s+you\b`),
	ci(`\bi\s+(can\s+help|helped|have\s+done)\s+(with\s+)?(that|this|it)\b`),
	ci(`\bi\s+implemented\s+(a\s+part\s+of\s+)?functionality\b`),
}

var Reply = []*regexp.Regexp{
	ci(`^sure,?\s`),
	ci(`^okay,?\s`),
	ci(`^yes,?\s`),
	ci(`^no,?\s`),
	ci(`^that'?s\b`),
	ci(`\bdm!?\s*$`),
	ci(`\blet\s+me\s+know\b`),
	ci(`^cool\b`),
	ci(`^nice\b`),
}

var Question = []*regexp.Regexp{
	regexp.MustCompile(`\?`),
	ci(`\bhelp\b`),
	ci(`\bneed\b`),
	ci(`\banyone\b`),
	ci(`\bhow\s+to\b`),
	ci(`\bwhere\b`),
	ci(`\bwhat\b`),
	ci(`\bwhy\b`),
	ci(`\bcan\s+someone\b`),
	ci(`\bdoes\s+anyone\b`),
}

// Problem patterns feed the genuine-question check.
var Problem = []*regexp.Regexp{
	ci(`\berror\b`),
	ci(`\bfailed\b`),
	ci(`\bissue\b`),
	ci(`\bproblem\b`),
	ci(`\bnot\s+working\b`),
	ci(`\bcan'?t\b`),
	ci(`\bdoes'?n'?t\s+work\b`),
}

var ProblemIntent = []*regexp.Regexp{
	ci(`\bi('?m| am)\s+(stuck|blocked|confused|lost)\b`),
	ci(`\b(can'?t|cannot|couldn'?t)\b`),
	ci(`\bdoesn'?t\s+work\b`),
	ci(`\bnot\s+working\b`),
	ci(`\bissue\b`),
	ci(`\bproblem\b`),
	ci(`\berror\b`),
	ci(`\bfailed\b`),
	ci(`\bkeeps\s+(failing|loading|breaking)\b`),
	ci(`\bsession\s+expired\b`),
	ci(`\bno\s+solution\b`),
	ci(`\bdoes\s+anyone\s+else\b`),
	ci(`\bstuck\b`),
	ci(`\bdown\b.*\b(due to|because of)\b`),
}

var (
	ProblemStatement = ci(`\b(broken|messed up|not working|issue|problem|stuck|failed|error|timeout|down)\b`)
	TechScore        = ci(`\b(api|database|db|auth|supabase|rpc|cache|session|logs|domain|backup)\b`)
	Builder          = ci(`\b(my|our)\s+(project|app|application|website)\b`)
	AdminUsername    = ci(`(Lovable Staff|Community Champion|Moderator|AdminBot|Dyno)`)
	AdminRole        = ci(`(Lovable Staff|Community Champion|Moderator)`)
)

// Transcript layout markers.
var (
	Timestamp = ci(`(?:.*?—\s+)?(?:(?:Wczoraj|Dzisiaj|Dziś|Yesterday|Today)\s+(?:o\s+|at\s+)?)?(\d{1,2}:\d{2}(?:\s*[AP]M)?)$`)
	ClockTime = regexp.MustCompile(`\d{1,2}:\d{2}`)
	Separator = regexp.MustCompile(`^[_\-]{3,}$`)
	Spaces    = regexp.MustCompile(` +`)
)

// RoleIconPrefixes start a role-icon header line.
var RoleIconPrefixes = []string{"ikona roli", "role icon"}

// MetaMarkers identify UI chrome copied along with a transcript.
var MetaMarkers = []string{"ikona roli", "role icon", "shared with me", "edycja", "(edited)", "odpowiedz"}

// ImageMarkers are whole-line attachment placeholders.
var ImageMarkers = []string{"obraz", "image"}

// ForwardedMarkers flag a forwarded message anywhere in a body line.
var ForwardedMarkers = []string{"przekazano dalej"}

// ForwardedLines flag a forwarded message when they make up a whole line.
var ForwardedLines = []string{"forwarded"}

// Any reports whether any pattern matches text.
func Any(list []*regexp.Regexp, text string) bool {
	return First(list, text) != nil
}

// First returns the first pattern matching text, or nil.
func First(list []*regexp.Regexp, text string) *regexp.Regexp {
	for _, re := range list {
		if re.MatchString(text) {
			return re
		}
	}
	return nil
}

// Source returns the expression of re without its case-insensitivity flag.
func Source(re *regexp.Regexp) string {
	return strings.TrimPrefix(re.String(), "(?i)")
}
