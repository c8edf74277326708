package anthropic_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/model"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/provider"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/provider/anthropic"
)

func TestGenerate(t *testing.T) {
	var captured struct {
		Model    string `json:"model"`
		System   string `json:"system"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.NotEmpty(t, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_, _ = w.Write([]byte(`{
			"content": [{"type": "text", "text": "Considered "}, {"type": "text", "text": "reply."}],
			"usage": {"input_tokens": 30, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	a := anthropic.New("claude-sonnet-4-20250514", "test-key", anthropic.WithBaseURL(srv.URL))

	reply, err := a.Generate(context.Background(), provider.Request{
		Question:     "Is P=NP?",
		Instructions: "You are a debater.",
		History: []model.Turn{
			{Provider: "openai", Model: "gpt-4o", Role: model.RoleDebater, Round: 1, Text: "First argument."},
			{Provider: "anthropic", Model: "claude-sonnet-4-20250514", Role: model.RoleDebater, Round: 1, Text: "My reply."},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Considered reply.", reply.Text)
	assert.Equal(t, int64(30), reply.InputTokens)
	assert.Equal(t, int64(5), reply.OutputTokens)

	assert.Equal(t, "You are a debater.", captured.System)
	require.Len(t, captured.Messages, 3)
	assert.Equal(t, "user", captured.Messages[0].Role)
	assert.Contains(t, captured.Messages[0].Content, "openai")
	assert.Equal(t, "assistant", captured.Messages[1].Role)
	assert.Equal(t, "user", captured.Messages[2].Role)
	assert.Equal(t, "Is P=NP?", captured.Messages[2].Content)
}

func TestGenerate_FirstMessageIsAlwaysUser(t *testing.T) {
	var roles []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		for _, m := range req.Messages {
			roles = append(roles, m.Role)
		}
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"ok"}],"usage":{"input_tokens":1,"output_tokens":1}}`))
	}))
	defer srv.Close()

	a := anthropic.New("claude-sonnet-4-20250514", "k", anthropic.WithBaseURL(srv.URL))

	// History begins with this adapter's own turn.
	_, err := a.Generate(context.Background(), provider.Request{
		Question: "q",
		History: []model.Turn{
			{Provider: "anthropic", Model: "claude-sonnet-4-20250514", Role: model.RoleDebater, Round: 1, Text: "I spoke first."},
			{Provider: "openai", Model: "gpt-4o", Role: model.RoleDebater, Round: 1, Text: "Then me."},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, roles)
	assert.Equal(t, "user", roles[0])
	for i := 1; i < len(roles); i++ {
		assert.NotEqual(t, roles[i-1], roles[i], "roles must alternate")
	}
}

func TestGenerate_ErrorKinds(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected provider.Kind
	}{
		{"unauthorized", http.StatusUnauthorized, provider.KindAuthFailure},
		{"rate limited", http.StatusTooManyRequests, provider.KindRateLimited},
		{"overloaded", http.StatusServiceUnavailable, provider.KindUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			a := anthropic.New("claude-sonnet-4-20250514", "k", anthropic.WithBaseURL(srv.URL))
			_, err := a.Generate(context.Background(), provider.Request{Question: "q"})
			require.Error(t, err)

			kind, ok := provider.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.expected, kind)
		})
	}
}

func TestGenerate_UsageFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"no usage in this reply"}]}`))
	}))
	defer srv.Close()

	a := anthropic.New("claude-sonnet-4-20250514", "k", anthropic.WithBaseURL(srv.URL))
	reply, err := a.Generate(context.Background(), provider.Request{Question: "count this prompt"})
	require.NoError(t, err)
	assert.Greater(t, reply.InputTokens, int64(0))
	assert.Greater(t, reply.OutputTokens, int64(0))
}
