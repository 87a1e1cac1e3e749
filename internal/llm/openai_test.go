package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-test", body["model"])
		assert.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])

		msgs := body["messages"].([]any)
		require.Len(t, msgs, 2)
		assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
		assert.Equal(t, "Post:\nhello", msgs[1].(map[string]any)["content"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": `{"category":"not_technical"}`}}},
		})
	}))
	defer server.Close()

	c := NewOpenAIClient("sk-test", "gpt-test", server.URL)
	out, err := c.Complete(context.Background(), CompletionRequest{System: "classify", User: "Post:\nhello", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"category":"not_technical"}`, out)
}

func TestOpenAIComplete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	c := NewOpenAIClient("sk-test", "gpt-test", server.URL)
	_, err := c.Complete(context.Background(), CompletionRequest{User: "x"})
	assert.Error(t, err)
}
