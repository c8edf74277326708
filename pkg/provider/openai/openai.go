// Package openai implements the provider adapter for the OpenAI
// chat-completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/VadymMak/multi-ai-chat-sub002/pkg/model"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/provider"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/tokenizer"
)

const (
	providerName   = "openai"
	defaultBaseURL = "https://api.openai.com/v1"
)

// Option configures the adapter.
type Option func(*Adapter)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) Option {
	return func(a *Adapter) {
		a.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(a *Adapter) {
		a.httpClient = httpClient
	}
}

// Adapter calls the OpenAI chat-completions endpoint. It holds only
// immutable configuration; conversation context arrives with each request.
type Adapter struct {
	model      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates an OpenAI adapter for the given model.
func New(modelID, apiKey string, opts ...Option) *Adapter {
	a := &Adapter{
		model:      modelID,
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Name() string  { return providerName }
func (a *Adapter) Model() string { return a.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
}

// Generate sends one chat-completion request built from the debate context.
func (a *Adapter) Generate(ctx context.Context, req provider.Request) (provider.Reply, error) {
	messages := a.buildMessages(req)

	body, err := json.Marshal(chatRequest{Model: a.model, Messages: messages})
	if err != nil {
		return provider.Reply{}, provider.NewError(provider.KindUpstream, providerName, fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return provider.Reply{}, provider.NewError(provider.KindUpstream, providerName, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return provider.Reply{}, provider.Classify(providerName, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.Reply{}, provider.Classify(providerName, err)
	}

	if resp.StatusCode != http.StatusOK {
		kind := provider.KindFromStatus(resp.StatusCode)
		return provider.Reply{}, provider.NewError(kind, providerName,
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(respBody, 200)))
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return provider.Reply{}, provider.NewError(provider.KindUpstream, providerName, fmt.Errorf("unmarshal response: %w", err))
	}
	if len(result.Choices) == 0 {
		return provider.Reply{}, provider.NewError(provider.KindUpstream, providerName, fmt.Errorf("response has no choices"))
	}

	reply := provider.Reply{
		Text:         result.Choices[0].Message.Content,
		InputTokens:  result.Usage.PromptTokens,
		OutputTokens: result.Usage.CompletionTokens,
	}

	// Some compatible backends omit the usage block; fall back to counting.
	if reply.InputTokens == 0 && reply.OutputTokens == 0 {
		reply.InputTokens = countMessages(messages, a.model)
		reply.OutputTokens, _ = tokenizer.CountTokens(reply.Text, providerName, a.model)
	}

	return reply, nil
}

// buildMessages converts the session context into the OpenAI message shape.
// This adapter's own prior turns become assistant messages; other
// providers' turns are attributed user messages.
func (a *Adapter) buildMessages(req provider.Request) []chatMessage {
	var messages []chatMessage
	if req.Instructions != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.Instructions})
	}
	for _, t := range req.History {
		if t.Failed() {
			continue
		}
		messages = append(messages, historyMessage(t))
	}
	return append(messages, chatMessage{Role: "user", Content: req.Question})
}

func historyMessage(t model.Turn) chatMessage {
	if t.Provider == providerName && t.Role == model.RoleDebater {
		return chatMessage{Role: "assistant", Content: t.Text}
	}
	return chatMessage{Role: "user", Content: provider.Attribution(t)}
}

func countMessages(messages []chatMessage, modelID string) int64 {
	var total int64
	for _, m := range messages {
		total += 4 // message overhead (role, formatting)
		count, err := tokenizer.CountTokens(m.Content, providerName, modelID)
		if err != nil {
			count = tokenizer.EstimateTokens(m.Content)
		}
		total += count
	}
	return total + 2 // assistant reply priming
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
