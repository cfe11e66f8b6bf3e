package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewAnthropicProvider_EmptyKey(t *testing.T) {
	if _, err := NewAnthropicProvider(""); err == nil {
		t.Fatal("NewAnthropicProvider() should return error for empty key")
	}
}

func TestAnthropicProvider_Complete(t *testing.T) {
	var body anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("unexpected x-api-key: %s", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != anthropicVersion {
			t.Errorf("unexpected anthropic-version: %s", r.Header.Get("anthropic-version"))
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": "Olá! Vamos aprender Python."}},
			"model":   "claude-test",
			"usage":   map[string]int{"input_tokens": 12, "output_tokens": 8},
		})
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider("test-key",
		WithAnthropicBaseURL(server.URL+"/"),
		WithAnthropicModel("claude-test"),
	)
	if err != nil {
		t.Fatalf("NewAnthropicProvider() error = %v", err)
	}

	resp, err := provider.Complete(context.Background(), CompletionRequest{
		System: "You are a tutor.",
		Messages: []Message{
			{Role: RoleSystem, Content: "Answer briefly."},
			{Role: RoleUser, Content: "hello"},
			{Role: "tool", Content: "ignored"},
		},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "Olá! Vamos aprender Python." {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.InputTokens != 12 || resp.OutputTokens != 8 {
		t.Errorf("tokens = %d/%d, want 12/8", resp.InputTokens, resp.OutputTokens)
	}

	if body.Model != "claude-test" {
		t.Errorf("model = %q, want claude-test", body.Model)
	}
	if body.MaxTokens != 1024 {
		t.Errorf("max_tokens = %d, want default 1024", body.MaxTokens)
	}
	if !strings.Contains(body.System, "You are a tutor.") || !strings.Contains(body.System, "Answer briefly.") {
		t.Errorf("system = %q, want both system texts", body.System)
	}
	if len(body.Messages) != 1 || body.Messages[0].Role != RoleUser {
		t.Errorf("messages = %+v, want only the user turn", body.Messages)
	}
}

func TestAnthropicProvider_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	provider, _ := NewAnthropicProvider("test-key", WithAnthropicBaseURL(server.URL))
	_, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("Complete() error = %v, want status 429", err)
	}
}

func TestAnthropicProvider_Complete_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[],"model":"claude-test"}`))
	}))
	defer server.Close()

	provider, _ := NewAnthropicProvider("test-key", WithAnthropicBaseURL(server.URL))
	if _, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}); err == nil {
		t.Fatal("Complete() should fail on empty content")
	}
}

func TestAnthropicProvider_Complete_NoTurns(t *testing.T) {
	provider, _ := NewAnthropicProvider("test-key", WithAnthropicBaseURL("http://127.0.0.1:1"))
	if _, err := provider.Complete(context.Background(), CompletionRequest{System: "only system"}); err == nil {
		t.Fatal("Complete() should fail without user messages")
	}
}
