package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirst(t *testing.T) {
	re := First(Reject, "how do I get rich quick with this")
	if assert.NotNil(t, re) {
		assert.Equal(t, `\bget\s+rich\s+quick\b`, Source(re))
	}
	assert.Nil(t, First(Reject, "my api returns 500"))
}

func TestTimestamp(t *testing.T) {
	cases := map[string]string{
		"alice — 10:32":                   "10:32",
		"bob — Today at 9:05 PM":          "9:05 PM",
		"— Wczoraj o 23:10":               "23:10",
		"Ikona roli, Moderator — 7:45 AM": "7:45 AM",
	}
	for line, want := range cases {
		m := Timestamp.FindStringSubmatch(line)
		if assert.NotNil(t, m, line) {
			assert.Equal(t, want, m[1], line)
		}
	}
	assert.Nil(t, Timestamp.FindStringSubmatch("no time here"))
}

func TestCaseInsensitive(t *testing.T) {
	assert.True(t, Any(Technical, "SUPABASE edge function"))
	assert.True(t, Any(Question, "Does Anyone know"))
	assert.True(t, AdminUsername.MatchString("dyno"))
	assert.False(t, Any(Helper, "my database is down"))
}
