package transcript

// UnknownUser is the username assigned when no author line can be resolved.
const UnknownUser = "Unknown"

// ChatMessage is one message recovered from a pasted Discord transcript.
// The filter annotations (Skip, RejectReason, NeedsHelpScore) are only ever
// set on the pre-filter's copy.
type ChatMessage struct {
	Username    string `json:"username"`
	Timestamp   string `json:"timestamp"`
	Text        string `json:"message"`
	HasImages   bool   `json:"has_images"`
	IsForwarded bool   `json:"is_forwarded"`
	Role        string `json:"role,omitempty"`

	Skip           bool     `json:"skip,omitempty"`
	RejectReason   string   `json:"auto_reject_reason,omitempty"`
	NeedsHelpScore *float32 `json:"needs_help_score,omitempty"`
}
