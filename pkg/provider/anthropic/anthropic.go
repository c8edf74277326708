// Package anthropic implements the provider adapter for the Anthropic
// messages API.
package anthropic

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
	providerName   = "anthropic"
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"

	defaultMaxTokens = 4096
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

// Adapter calls the Anthropic messages endpoint. Stateless: conversation
// context is passed explicitly on every call.
type Adapter struct {
	model      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates an Anthropic adapter for the given model.
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

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int64 `json:"input_tokens"`
		OutputTokens int64 `json:"output_tokens"`
	} `json:"usage"`
}

// Generate sends one messages request built from the debate context.
func (a *Adapter) Generate(ctx context.Context, req provider.Request) (provider.Reply, error) {
	msgs := a.buildMessages(req)

	body, err := json.Marshal(messagesRequest{
		Model:     a.model,
		System:    req.Instructions,
		Messages:  msgs,
		MaxTokens: defaultMaxTokens,
	})
	if err != nil {
		return provider.Reply{}, provider.NewError(provider.KindUpstream, providerName, fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return provider.Reply{}, provider.NewError(provider.KindUpstream, providerName, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

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

	var result messagesResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return provider.Reply{}, provider.NewError(provider.KindUpstream, providerName, fmt.Errorf("unmarshal response: %w", err))
	}

	var text strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	reply := provider.Reply{
		Text:         text.String(),
		InputTokens:  result.Usage.InputTokens,
		OutputTokens: result.Usage.OutputTokens,
	}

	if reply.InputTokens == 0 && reply.OutputTokens == 0 {
		var prompt strings.Builder
		prompt.WriteString(req.Instructions)
		for _, m := range msgs {
			prompt.WriteString(m.Content)
		}
		reply.InputTokens = tokenizer.EstimateTokens(prompt.String())
		reply.OutputTokens = tokenizer.EstimateTokens(reply.Text)
	}

	return reply, nil
}

// buildMessages converts the session context into the Anthropic message
// shape. The API requires strictly alternating roles starting with "user",
// so consecutive same-role messages are merged.
func (a *Adapter) buildMessages(req provider.Request) []message {
	var msgs []message
	for _, t := range req.History {
		if t.Failed() {
			continue
		}
		// Own prior turns become assistant messages, but the first message
		// must be a user one; attribute it like the others in that case.
		if t.Provider == providerName && t.Role == model.RoleDebater && len(msgs) > 0 {
			msgs = appendMerged(msgs, message{Role: "assistant", Content: t.Text})
			continue
		}
		msgs = appendMerged(msgs, message{Role: "user", Content: provider.Attribution(t)})
	}
	return appendMerged(msgs, message{Role: "user", Content: req.Question})
}

func appendMerged(msgs []message, m message) []message {
	if n := len(msgs); n > 0 && msgs[n-1].Role == m.Role {
		msgs[n-1].Content += "\n\n" + m.Content
		return msgs
	}
	return append(msgs, m)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
