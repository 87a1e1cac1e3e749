package slack

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ReactionEvent is a reviewer's emoji on a posted lead.
type ReactionEvent struct {
	Reaction  string `json:"reaction"`
	UserID    string `json:"user_id"`
	Channel   string `json:"channel"`
	MessageTS string `json:"message_ts"`
}

// ReviewVerdict is a reviewer's call on a posted lead.
type ReviewVerdict string

const (
	VerdictConfirmed ReviewVerdict = "confirmed"
	VerdictRejected  ReviewVerdict = "rejected"
	VerdictBlacklist ReviewVerdict = "blacklist"
	VerdictUnknown   ReviewVerdict = "unknown"
)

var verdicts = map[string]ReviewVerdict{
	"+1":               VerdictConfirmed,
	"thumbsup":         VerdictConfirmed,
	"white_check_mark": VerdictConfirmed,
	"-1":               VerdictRejected,
	"thumbsdown":       VerdictRejected,
	"x":                VerdictRejected,
	"no_entry":         VerdictBlacklist,
	"no_entry_sign":    VerdictBlacklist,
}

// ErrNoMessage is returned for reactions that do not point at a message.
var ErrNoMessage = errors.New("reaction has no message timestamp")

// ParseReaction maps an emoji name, with or without colons and skin-tone
// modifier, to a verdict.
func ParseReaction(reaction string) ReviewVerdict {
	name := strings.Trim(reaction, ":")
	if i := strings.Index(name, "::skin-tone"); i >= 0 {
		name = name[:i]
	}
	if v, ok := verdicts[name]; ok {
		return v
	}
	return VerdictUnknown
}

// ParseReactionEvent accepts either the relay's metadata wrapper or a raw
// Slack reaction_added event.
func ParseReactionEvent(data []byte) (*ReactionEvent, error) {
	var payload struct {
		Metadata map[string]string `json:"metadata"`

		Type     string `json:"type"`
		User     string `json:"user"`
		Reaction string `json:"reaction"`
		Item     struct {
			Channel string `json:"channel"`
			TS      string `json:"ts"`
		} `json:"item"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse reaction event: %w", err)
	}

	var evt ReactionEvent
	if payload.Metadata != nil {
		evt = ReactionEvent{
			Reaction:  payload.Metadata["text"],
			UserID:    payload.Metadata["user_id"],
			Channel:   payload.Metadata["channel_id"],
			MessageTS: payload.Metadata["message_ts"],
		}
	} else {
		if payload.Type != "" && payload.Type != "reaction_added" {
			return nil, fmt.Errorf("unexpected slack event type %q", payload.Type)
		}
		evt = ReactionEvent{
			Reaction:  payload.Reaction,
			UserID:    payload.User,
			Channel:   payload.Item.Channel,
			MessageTS: payload.Item.TS,
		}
	}

	evt.Reaction = strings.Trim(evt.Reaction, ":")
	if evt.MessageTS == "" {
		return nil, ErrNoMessage
	}
	return &evt, nil
}
