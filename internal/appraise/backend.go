// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package appraise

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/trialcast/pkg/types"
)

// AIBackend abstracts the Generative AI API so tests can supply a mock.
// Implementations take the rendered appraisal prompt and return the
// markdown report. Per Strategy pattern.
type AIBackend interface {
	Appraise(ctx context.Context, p Prompt) (string, error)
}

// Prompt carries the system framing and the user message for one
// appraisal call.
type Prompt struct {
	System string
	User   string
}

// API endpoints. Package-level vars for test substitution.
var (
	claudeAPIURL = "https://api.anthropic.com/v1/messages"
	openaiAPIURL = "https://api.openai.com/v1/chat/completions"
)

// NewBackend returns the backend selected by the configuration.
func NewBackend(cfg types.AIConfig, client *http.Client) (AIBackend, error) {
	switch cfg.Provider {
	case types.ProviderClaude:
		return &ClaudeBackend{Cfg: cfg, Client: client}, nil
	case types.ProviderOpenAI:
		return &OpenAIBackend{Cfg: cfg, Client: client}, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

// ClaudeBackend calls the Claude Messages API.
type ClaudeBackend struct {
	Cfg    types.AIConfig
	Client *http.Client
}

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
	System      string          `json:"system,omitempty"`
	Messages    []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Appraise sends the prompt to the Claude API and returns the markdown text.
func (c *ClaudeBackend) Appraise(ctx context.Context, p Prompt) (string, error) {
	reqBody := claudeRequest{
		Model:       c.Cfg.Model,
		MaxTokens:   c.Cfg.MaxTokens,
		Temperature: c.Cfg.Temperature,
		System:      p.System,
		Messages: []claudeMessage{
			{Role: "user", Content: p.User},
		},
	}

	body, err := postJSON(ctx, c.Client, claudeAPIURL, reqBody, map[string]string{
		"x-api-key":         c.Cfg.APIKey,
		"anthropic-version": "2023-06-01",
	})
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}

	var cResp claudeResponse
	if err := json.Unmarshal(body, &cResp); err != nil {
		return "", fmt.Errorf("decoding Claude response: %w", err)
	}
	for _, block := range cResp.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Claude API response")
}

// OpenAIBackend calls the OpenAI Chat Completions API.
type OpenAIBackend struct {
	Cfg    types.AIConfig
	Client *http.Client
}

type openaiRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
	Messages    []claudeMessage `json:"messages"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Appraise sends the prompt to the OpenAI API and returns the markdown text.
func (o *OpenAIBackend) Appraise(ctx context.Context, p Prompt) (string, error) {
	reqBody := openaiRequest{
		Model:       o.Cfg.Model,
		MaxTokens:   o.Cfg.MaxTokens,
		Temperature: o.Cfg.Temperature,
		Messages: []claudeMessage{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
	}

	body, err := postJSON(ctx, o.Client, openaiAPIURL, reqBody, map[string]string{
		"Authorization": "Bearer " + o.Cfg.APIKey,
	})
	if err != nil {
		return "", fmt.Errorf("calling OpenAI API: %w", err)
	}

	var oResp openaiResponse
	if err := json.Unmarshal(body, &oResp); err != nil {
		return "", fmt.Errorf("decoding OpenAI response: %w", err)
	}
	if len(oResp.Choices) == 0 || oResp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no content in OpenAI API response")
	}
	return oResp.Choices[0].Message.Content, nil
}

func postJSON(ctx context.Context, client *http.Client, url string, reqBody any, headers map[string]string) ([]byte, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
