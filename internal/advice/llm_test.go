package advice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(t *testing.T, handler http.HandlerFunc) *LLMGenerator {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewLLMGenerator(Config{
		Token:   "test-token",
		BaseURL: server.URL,
	}, nil)
}

func chatReply(content string) chatResponse {
	var resp chatResponse
	resp.Choices = append(resp.Choices, struct {
		Message chatMessage `json:"message"`
	}{Message: chatMessage{Role: "assistant", Content: content}})
	return resp
}

func TestLLMGenerator_Generate(t *testing.T) {
	var gotReq chatRequest
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		_ = json.NewEncoder(w).Encode(chatReply(
			"* Cut dining out to twice a week to stay under budget.\n" +
				"* Move the leftover $150 into your savings account.\n" +
				"* Review your streaming subscriptions this weekend."))
	})

	text, source := g.Generate(context.Background(), "2024-03", 850, 1000)

	assert.Equal(t, SourceAI, source)
	assert.Contains(t, text, "* Cut dining out")
	assert.Contains(t, gotReq.Messages[0].Content, "$850.00")
	assert.Contains(t, gotReq.Messages[0].Content, "$1000.00")
}

func TestLLMGenerator_Generate_FallsBack(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "error status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "quota exceeded", http.StatusTooManyRequests)
			},
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"choices": []}`))
			},
		},
		{
			name: "unusable content",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_ = json.NewEncoder(w).Encode(chatReply("OK."))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGenerator(t, tt.handler)

			text, source := g.Generate(context.Background(), "2024-03", 850, 1000)

			assert.Equal(t, SourceRuleBased, source)
			assert.NotEmpty(t, text)
		})
	}
}

func TestLLMGenerator_Generate_NoToken(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	t.Cleanup(server.Close)

	g := NewLLMGenerator(Config{BaseURL: server.URL}, nil)

	text, source := g.Generate(context.Background(), "2024-03", 850, 1000)

	assert.Equal(t, SourceRuleBased, source)
	assert.NotEmpty(t, text)
	assert.False(t, called, "no network call without a credential")
}
