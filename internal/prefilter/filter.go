// Package prefilter rejects obvious non-candidates before any model is
// called. It also maintains the blacklist from the archetypes it detects.
package prefilter

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/MikeSquared-Agency/scout/internal/blacklist"
	"github.com/MikeSquared-Agency/scout/internal/transcript"
)

// Rejection reasons. Keyword and blacklist reasons carry a suffix.
const (
	ReasonForwarded  = "forwarded_message"
	ReasonTooShort   = "too_short_no_question"
	ReasonGeneral    = "general_comment"
	reasonBlacklist  = "blacklisted_user:"
	reasonSnippetLen = 50
)

// Engine runs the pre-filter against an injected blacklist.
type Engine struct {
	blacklist *blacklist.Store
	logger    *slog.Logger
}

func New(bl *blacklist.Store, logger *slog.Logger) *Engine {
	return &Engine{blacklist: bl, logger: logger}
}

// Update summarises one blacklist-update pass.
type Update struct {
	// Detected maps newly blacklisted users to their category.
	Detected map[string]blacklist.Category
	// Helpers are users whose behaviour looks like answering others. They
	// are reported but never blacklisted.
	Helpers []string
}

// Report is the outcome of a full pre-filter run.
type Report struct {
	Messages   []transcript.ChatMessage `json:"messages"`
	Candidates []transcript.ChatMessage `json:"candidates"`
	Rejections map[string]int           `json:"rejections"`
	Update     Update                   `json:"-"`
}

// Rejected returns the total number of rejected messages.
func (r Report) Rejected() int {
	n := 0
	for _, c := range r.Rejections {
		n += c
	}
	return n
}

// Run updates the blacklist, filters a copy of msgs and scores the
// survivors. The input slice is never modified. A blacklist persistence
// failure is returned alongside a complete report.
func (e *Engine) Run(msgs []transcript.ChatMessage) (Report, error) {
	update, err := e.UpdateBlacklist(msgs)
	filtered := e.Filter(msgs, update.Detected)

	report := Report{
		Messages:   filtered,
		Rejections: make(map[string]int),
		Update:     update,
	}
	for i := range filtered {
		m := &filtered[i]
		if m.Skip {
			report.Rejections[m.RejectReason]++
			rejectionsTotal.WithLabelValues(ruleLabel(m.RejectReason)).Inc()
			continue
		}
		score := NeedsHelpScore(*m)
		m.NeedsHelpScore = &score
		needsHelpScore.Observe(float64(score))
		report.Candidates = append(report.Candidates, *m)
	}

	messagesTotal.Add(float64(len(msgs)))
	candidatesTotal.Add(float64(len(report.Candidates)))

	e.logger.Info("pre-filter complete",
		"messages", len(msgs),
		"rejected", report.Rejected(),
		"candidates", len(report.Candidates),
		"blacklisted", len(update.Detected),
	)
	return report, err
}

// UpdateBlacklist detects admins, spammers and recruiters in msgs and adds
// them to the blacklist. Users already listed are skipped.
func (e *Engine) UpdateBlacklist(msgs []transcript.ChatMessage) (Update, error) {
	update := Update{Detected: make(map[string]blacklist.Category)}
	var errs []error

	add := func(username string, cat blacklist.Category, reason string) {
		update.Detected[username] = cat
		added, err := e.blacklist.Add(username, cat, reason)
		if err != nil {
			errs = append(errs, fmt.Errorf("blacklist %s: %w", username, err))
			return
		}
		if added {
			blacklistAdditionsTotal.WithLabelValues(string(cat)).Inc()
		}
	}

	for _, m := range msgs {
		if e.listed(m.Username, update) {
			continue
		}
		switch cat := DetectUserType(m); cat {
		case blacklist.CategoryAdmin, blacklist.CategorySpammer, blacklist.CategoryRecruiter:
			add(m.Username, cat, "Pattern detected: "+snippet(m.Text))
		}
	}

	for _, username := range usernames(msgs) {
		if e.listed(username, update) {
			continue
		}
		switch AnalyzeBehavior(msgs, username) {
		case blacklist.CategorySpammer:
			add(username, blacklist.CategorySpammer, fmt.Sprintf("Behavior: %d messages", countBy(msgs, username)))
		case blacklist.CategoryHelper:
			update.Helpers = append(update.Helpers, username)
		}
	}

	if len(update.Detected) > 0 || len(update.Helpers) > 0 {
		e.logger.Info("blacklist updated", "detected", len(update.Detected), "helpers", len(update.Helpers))
	}
	return update, errors.Join(errs...)
}

// Filter annotates a copy of msgs with Skip and RejectReason. pending holds
// users detected in this batch whose blacklist write may have failed.
func (e *Engine) Filter(msgs []transcript.ChatMessage, pending map[string]blacklist.Category) []transcript.ChatMessage {
	out := make([]transcript.ChatMessage, len(msgs))
	copy(out, msgs)

	for i := range out {
		m := &out[i]
		m.Skip = false
		m.RejectReason = ""
		m.NeedsHelpScore = nil
		if reason := e.rejectReason(*m, pending); reason != "" {
			m.Skip = true
			m.RejectReason = reason
		}
	}
	return out
}

func (e *Engine) rejectReason(m transcript.ChatMessage, pending map[string]blacklist.Category) string {
	text := m.Text

	cat := e.blacklist.Category(m.Username)
	if cat == "" {
		cat = pending[m.Username]
	}
	if cat != "" && cat != blacklist.CategoryHelper {
		return reasonBlacklist + string(cat)
	}

	if reason := RejectKeyword(text); reason != "" {
		return reason
	}

	if m.IsForwarded {
		return ReasonForwarded
	}

	question := HasQuestionIndicators(text)
	technical := HasTechnicalKeywords(text)
	intent := HasProblemIntent(text)

	if IsTooShort(text) && !question && !technical && !intent {
		return ReasonTooShort
	}

	if !question && !IsReply(text) && !intent && !technical {
		return ReasonGeneral
	}
	return ""
}

func (e *Engine) listed(username string, u Update) bool {
	if _, ok := u.Detected[username]; ok {
		return true
	}
	return e.blacklist.IsBlacklisted(username)
}

func usernames(msgs []transcript.ChatMessage) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range msgs {
		if !seen[m.Username] {
			seen[m.Username] = true
			out = append(out, m.Username)
		}
	}
	return out
}

func countBy(msgs []transcript.ChatMessage, username string) int {
	n := 0
	for _, m := range msgs {
		if m.Username == username {
			n++
		}
	}
	return n
}

func snippet(text string) string {
	r := []rune(text)
	if len(r) > reasonSnippetLen {
		r = r[:reasonSnippetLen]
	}
	return string(r) + "..."
}
