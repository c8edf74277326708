package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/model"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/provider"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/provider/openai"
)

func TestGenerate(t *testing.T) {
	var captured struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"content": "The answer is open."}}],
			"usage": {"prompt_tokens": 42, "completion_tokens": 7}
		}`))
	}))
	defer srv.Close()

	a := openai.New("gpt-4o", "test-key", openai.WithBaseURL(srv.URL))

	reply, err := a.Generate(context.Background(), provider.Request{
		Question:     "Is P=NP?",
		Instructions: "You are a debater.",
		History: []model.Turn{
			{Provider: "anthropic", Model: "claude-sonnet-4-20250514", Role: model.RoleDebater, Round: 1, Text: "Prior argument."},
			{Provider: "openai", Model: "gpt-4o", Role: model.RoleDebater, Round: 1, Text: "My own argument."},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "The answer is open.", reply.Text)
	assert.Equal(t, int64(42), reply.InputTokens)
	assert.Equal(t, int64(7), reply.OutputTokens)

	assert.Equal(t, "gpt-4o", captured.Model)
	require.Len(t, captured.Messages, 4)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Contains(t, captured.Messages[1].Content, "anthropic")
	assert.Equal(t, "assistant", captured.Messages[2].Role)
	assert.Equal(t, "My own argument.", captured.Messages[2].Content)
	assert.Equal(t, "Is P=NP?", captured.Messages[3].Content)
}

func TestGenerate_UsageFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "No usage block here."}}]}`))
	}))
	defer srv.Close()

	a := openai.New("gpt-4o", "k", openai.WithBaseURL(srv.URL))
	reply, err := a.Generate(context.Background(), provider.Request{Question: "Count me."})
	require.NoError(t, err)
	assert.Greater(t, reply.InputTokens, int64(0))
	assert.Greater(t, reply.OutputTokens, int64(0))
}

func TestGenerate_ErrorKinds(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected provider.Kind
	}{
		{"unauthorized", http.StatusUnauthorized, provider.KindAuthFailure},
		{"forbidden", http.StatusForbidden, provider.KindAuthFailure},
		{"rate limited", http.StatusTooManyRequests, provider.KindRateLimited},
		{"server error", http.StatusInternalServerError, provider.KindUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			a := openai.New("gpt-4o", "k", openai.WithBaseURL(srv.URL))
			_, err := a.Generate(context.Background(), provider.Request{Question: "q"})
			require.Error(t, err)

			kind, ok := provider.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.expected, kind)
		})
	}
}

func TestGenerate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	a := openai.New("gpt-4o", "k", openai.WithBaseURL(srv.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := a.Generate(ctx, provider.Request{Question: "q"})
	require.Error(t, err)

	kind, ok := provider.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, provider.KindTimeout, kind)
}

func TestGenerate_SkipsFailedTurns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		for _, m := range req.Messages {
			assert.NotContains(t, m.Content, "should be dropped")
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}],"usage":{"prompt_tokens":1,"completion_tokens":1}}`))
	}))
	defer srv.Close()

	a := openai.New("gpt-4o", "k", openai.WithBaseURL(srv.URL))
	_, err := a.Generate(context.Background(), provider.Request{
		Question: "q",
		History: []model.Turn{
			{Provider: "anthropic", Round: 1, Role: model.RoleDebater, Text: "should be dropped", FailureKind: "timeout"},
		},
	})
	require.NoError(t, err)
}
