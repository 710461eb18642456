package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"horizonscan/internal/config"
)

func TestCompleteRoundTrip(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("missing bearer token, got %q", got)
		}

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			Temperature float64 `json:"temperature"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "gpt-4o-mini" {
			t.Errorf("unexpected model: %s", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "classify this" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"[{\"topic\":\"x\"}]"}}]}`))
	}))
	defer server.Close()

	client := NewClient(config.ClassifierConfig{
		Endpoint:    server.URL,
		Model:       "gpt-4o-mini",
		APIKey:      "secret",
		Temperature: 0.2,
	})

	got, err := client.Complete(context.Background(), "system prompt", "classify this")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != `[{"topic":"x"}]` {
		t.Fatalf("unexpected completion: %q", got)
	}
}

func TestCompleteSurfacesAPIErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "insufficient_quota"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(config.ClassifierConfig{Endpoint: server.URL, Model: "gpt-4o-mini", APIKey: "secret"})

	if _, err := client.Complete(context.Background(), "s", "p"); err == nil {
		t.Fatalf("expected error for 429 response")
	} else if !strings.Contains(err.Error(), "insufficient_quota") {
		t.Fatalf("error should carry the API payload: %v", err)
	}
}

func TestCompleteRejectsMisconfiguredClient(t *testing.T) {
	t.Parallel()

	client := NewClient(config.ClassifierConfig{Endpoint: "https://api.example", Model: "m"})

	if _, err := client.Complete(context.Background(), "s", "p"); err == nil {
		t.Fatalf("expected misconfiguration error without api key")
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewClient(config.ClassifierConfig{Endpoint: server.URL, Model: "m", APIKey: "k"})

	if _, err := client.Complete(context.Background(), "s", "p"); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}
