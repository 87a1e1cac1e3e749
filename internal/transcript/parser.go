// Package transcript turns raw copy-pasted Discord channel text into
// structured messages.
package transcript

import (
	"fmt"
	"os"
	"strings"

	"github.com/MikeSquared-Agency/scout/internal/patterns"
)

// ParseFile reads a transcript from disk and parses it.
func ParseFile(path string) ([]ChatMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return Parse(string(data)), nil
}

// Parse never fails: lines that fit no known layout are kept as body text.
func Parse(raw string) []ChatMessage {
	raw = strings.ReplaceAll(raw, "\u2060", "")
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	lines := strings.Split(raw, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	var msgs []ChatMessage
	for i, line := range lines {
		if line == "" {
			continue
		}

		if m := patterns.Timestamp.FindStringSubmatch(line); m != nil {
			msg := ChatMessage{Username: UnknownUser, Timestamp: m[1]}
			lower := strings.ToLower(line)

			switch {
			case strings.Contains(line, " — ") && !isRoleIconHeader(lower):
				// "alice — 10:32"
				if user := strings.TrimSpace(strings.SplitN(line, " — ", 2)[0]); user != "" && !isMeta(user) {
					msg.Username = user
				}
			case isRoleIconHeader(lower):
				// "Role icon, Moderator — 10:32" under a separate username line.
				msg.Role = line
				if user, ok := previousAuthor(lines, i); ok {
					msg.Username = user
					stripTrailingAuthor(msgs, user)
				}
			case strings.HasPrefix(line, "—"):
				// "— 10:32" under a separate username line.
				if user, ok := previousAuthor(lines, i); ok {
					msg.Username = user
					stripTrailingAuthor(msgs, user)
				}
			}

			msgs = append(msgs, msg)
			continue
		}

		if len(msgs) == 0 {
			continue
		}
		appendBody(&msgs[len(msgs)-1], line)
	}

	out := msgs[:0]
	for _, m := range msgs {
		m.Text = patterns.Spaces.ReplaceAllString(strings.TrimSpace(m.Text), " ")
		if m.Text != "" || m.HasImages {
			out = append(out, m)
		}
	}
	return out
}

func appendBody(cur *ChatMessage, line string) {
	lower := strings.ToLower(line)
	switch {
	case containsAny(lower, patterns.ImageMarkers, true):
		cur.HasImages = true
	case containsAny(lower, patterns.ForwardedMarkers, false), containsAny(lower, patterns.ForwardedLines, true):
		cur.IsForwarded = true
	case isMeta(line), patterns.Separator.MatchString(line):
	default:
		if cur.Text == "" {
			cur.Text = line
		} else {
			cur.Text += "\n" + line
		}
	}
}

// previousAuthor walks back from the header line to the closest non-empty,
// non-meta line, which holds the author's name.
func previousAuthor(lines []string, header int) (string, bool) {
	for j := header - 1; j >= 0; j-- {
		prev := lines[j]
		if prev == "" {
			continue
		}
		if !isMeta(prev) {
			return prev, true
		}
	}
	return "", false
}

// stripTrailingAuthor removes the author line that was swallowed into the
// previous message body before its header was recognised.
func stripTrailingAuthor(msgs []ChatMessage, user string) {
	if len(msgs) == 0 {
		return
	}
	last := &msgs[len(msgs)-1]
	if strings.HasSuffix(last.Text, user) {
		last.Text = strings.TrimSpace(strings.TrimSuffix(last.Text, user))
	}
}

func isRoleIconHeader(lower string) bool {
	for _, p := range patterns.RoleIconPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

func isMeta(line string) bool {
	lower := strings.ToLower(line)
	// A role-icon line carrying a time is an author header, not chrome.
	if containsAny(lower, patterns.RoleIconPrefixes, false) && patterns.ClockTime.MatchString(line) {
		return false
	}
	return containsAny(lower, patterns.MetaMarkers, false)
}

func containsAny(lower string, markers []string, whole bool) bool {
	for _, m := range markers {
		if whole && lower == m {
			return true
		}
		if !whole && strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
