// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package appraise

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/trialcast/pkg/types"
)

func TestNewBackend(t *testing.T) {
	if _, err := NewBackend(types.AIConfig{Provider: types.ProviderClaude}, nil); err != nil {
		t.Errorf("claude provider: %v", err)
	}
	if _, err := NewBackend(types.AIConfig{Provider: types.ProviderOpenAI}, nil); err != nil {
		t.Errorf("openai provider: %v", err)
	}
	if _, err := NewBackend(types.AIConfig{Provider: "gemini"}, nil); err == nil {
		t.Error("unknown provider should fail")
	}
}

func TestClaudeBackendAppraise(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("x-api-key = %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("anthropic-version header missing")
		}

		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("request body not JSON: %v", err)
		}
		if req["model"] != "claude-sonnet-4-5" {
			t.Errorf("model = %v", req["model"])
		}
		if !strings.Contains(req["system"].(string), "methodologist") {
			t.Errorf("system = %v", req["system"])
		}

		io.WriteString(w, `{"content":[{"type":"text","text":"## Appraisal\nSolid trial."}]}`)
	}))
	defer srv.Close()

	orig := claudeAPIURL
	claudeAPIURL = srv.URL
	defer func() { claudeAPIURL = orig }()

	backend := &ClaudeBackend{
		Cfg:    types.AIConfig{Model: "claude-sonnet-4-5", APIKey: "test-key", MaxTokens: 3000},
		Client: srv.Client(),
	}
	got, err := backend.Appraise(context.Background(), Prompt{System: systemPrompt, User: "appraise this"})
	if err != nil {
		t.Fatalf("Appraise() error: %v", err)
	}
	if !strings.Contains(got, "Solid trial") {
		t.Errorf("got %q", got)
	}
}

func TestClaudeBackendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"type":"overloaded_error"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	orig := claudeAPIURL
	claudeAPIURL = srv.URL
	defer func() { claudeAPIURL = orig }()

	backend := &ClaudeBackend{Cfg: types.AIConfig{Model: "m"}, Client: srv.Client()}
	_, err := backend.Appraise(context.Background(), Prompt{User: "x"})
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Errorf("err = %v, want HTTP 503", err)
	}
}

func TestOpenAIBackendAppraise(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}

		body, _ := io.ReadAll(r.Body)
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("request body not JSON: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("messages = %+v, want system then user", req.Messages)
		}

		io.WriteString(w, `{"choices":[{"message":{"content":"## Appraisal\nCareful read."}}]}`)
	}))
	defer srv.Close()

	orig := openaiAPIURL
	openaiAPIURL = srv.URL
	defer func() { openaiAPIURL = orig }()

	backend := &OpenAIBackend{
		Cfg:    types.AIConfig{Model: "gpt-5-thinking", APIKey: "test-key"},
		Client: srv.Client(),
	}
	got, err := backend.Appraise(context.Background(), Prompt{System: systemPrompt, User: "appraise this"})
	if err != nil {
		t.Fatalf("Appraise() error: %v", err)
	}
	if !strings.Contains(got, "Careful read") {
		t.Errorf("got %q", got)
	}
}

func TestOpenAIBackendEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	orig := openaiAPIURL
	openaiAPIURL = srv.URL
	defer func() { openaiAPIURL = orig }()

	backend := &OpenAIBackend{Cfg: types.AIConfig{Model: "m"}, Client: srv.Client()}
	if _, err := backend.Appraise(context.Background(), Prompt{User: "x"}); err == nil {
		t.Error("empty choices should fail")
	}
}
