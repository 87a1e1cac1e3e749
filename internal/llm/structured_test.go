package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verdict struct {
	Label string  `json:"label" jsonschema:"enum=yes,enum=no"`
	Score float32 `json:"score" jsonschema:"minimum=0,maximum=1"`
	Note  *string `json:"note" jsonschema:"oneof_type=string;null"`
}

func TestStructured_Valid(t *testing.T) {
	fake := &fakeCompleter{reply: "```json\n{\"label\":\"yes\",\"score\":0.8,\"note\":null}\n```"}
	s := NewStructured(fake, discardLogger())

	var v verdict
	require.NoError(t, s.Invoke(context.Background(), "judge", "decide", "input", &v))
	assert.Equal(t, "yes", v.Label)
	assert.InDelta(t, 0.8, float64(v.Score), 1e-6)
	assert.Nil(t, v.Note)

	assert.True(t, fake.last.JSON)
	assert.Contains(t, fake.last.System, "decide")
	assert.Contains(t, fake.last.System, `"label"`)
}

func TestStructured_SchemaViolation(t *testing.T) {
	fake := &fakeCompleter{reply: `{"label":"maybe","score":0.8,"note":null}`}
	s := NewStructured(fake, discardLogger())

	var v verdict
	err := s.Invoke(context.Background(), "judge", "decide", "input", &v)

	var ierr *InferenceError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, KindSchema, ierr.Kind)
	assert.Equal(t, "judge", ierr.Op)
}

func TestStructured_MissingField(t *testing.T) {
	fake := &fakeCompleter{reply: `{"label":"no"}`}
	s := NewStructured(fake, discardLogger())

	var v verdict
	var ierr *InferenceError
	require.ErrorAs(t, s.Invoke(context.Background(), "judge", "", "", &v), &ierr)
	assert.Equal(t, KindSchema, ierr.Kind)
}

func TestStructured_Malformed(t *testing.T) {
	fake := &fakeCompleter{reply: `{"label": "yes",`}
	s := NewStructured(fake, discardLogger())

	var v verdict
	var ierr *InferenceError
	require.ErrorAs(t, s.Invoke(context.Background(), "judge", "", "", &v), &ierr)
	assert.Equal(t, KindMalformed, ierr.Kind)
}

func TestStructured_Upstream(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("boom")}
	s := NewStructured(fake, discardLogger())

	var v verdict
	var ierr *InferenceError
	require.ErrorAs(t, s.Invoke(context.Background(), "judge", "", "", &v), &ierr)
	assert.Equal(t, KindUpstream, ierr.Kind)
}

func TestStructured_Timeout(t *testing.T) {
	fake := &fakeCompleter{reply: "{}"}
	s := NewStructured(fake, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()

	var v verdict
	var ierr *InferenceError
	require.ErrorAs(t, s.Invoke(ctx, "judge", "", "", &v), &ierr)
	assert.Equal(t, KindTimeout, ierr.Kind)
}

func TestStructured_NonPointer(t *testing.T) {
	s := NewStructured(&fakeCompleter{}, discardLogger())
	assert.Error(t, s.Invoke(context.Background(), "judge", "", "", verdict{}))
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence(`  {"a":1} `))
}
