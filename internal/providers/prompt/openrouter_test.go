package prompt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kompis/server/internal/domain"
)

func TestRewriteCallsChatCompletion(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]any{"role": "assistant", "content": " cinematic portrait "}},
			},
		})
	}))
	defer server.Close()

	rewriter := NewOpenRouterRewriter(OpenRouterOptions{APIKey: "test-key", BaseURL: server.URL, Model: "test/text"})
	got, err := rewriter.Rewrite(context.Background(), EnrichRequest{RawPrompt: "a portrait", Attributes: "blonde hair"})
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if got != "cinematic portrait" {
		t.Fatalf("rewritten = %q", got)
	}

	messages := captured["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(messages))
	}
	user := messages[1].(map[string]any)["content"].(string)
	if !strings.Contains(user, "User request: a portrait") {
		t.Fatalf("user payload = %q", user)
	}
	if !strings.Contains(user, "Visual attributes from the reference image: blonde hair") {
		t.Fatalf("user payload = %q", user)
	}
}

func TestRewriteWithoutClient(t *testing.T) {
	rewriter := NewOpenRouterRewriter(OpenRouterOptions{})
	if _, err := rewriter.Rewrite(context.Background(), EnrichRequest{RawPrompt: "x"}); err == nil {
		t.Fatalf("expected error without configured client")
	}
}

func TestBuildRewritePayload(t *testing.T) {
	payload := buildRewritePayload(EnrichRequest{
		RawPrompt:  "a portrait",
		Companion:  &domain.Companion{Name: "elsa", Relationship: "girlfriend"},
		Attributes: "blonde hair",
	})
	lines := strings.Split(payload, "\n")
	if len(lines) != 3 {
		t.Fatalf("payload lines = %d: %q", len(lines), payload)
	}
	if lines[0] != "User request: a portrait" {
		t.Fatalf("first line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Character context: Elsa") {
		t.Fatalf("second line = %q", lines[1])
	}
	if lines[2] != "Visual attributes from the reference image: blonde hair" {
		t.Fatalf("third line = %q", lines[2])
	}
}
