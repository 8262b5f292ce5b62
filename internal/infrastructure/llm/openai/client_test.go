package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExtractFromTextSendsDocumentAndModel(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header: %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"results\":[]}"}}]}`))
	}))
	defer server.Close()

	client := New(server.URL, "test-key", "gpt-text", "gpt-vision", Options{})
	raw, err := client.ExtractFromText(context.Background(), "Invoice Total: $42.00", 3)
	if err != nil {
		t.Fatalf("ExtractFromText() error = %v", err)
	}
	if raw != `{"results":[]}` {
		t.Fatalf("unexpected content: %q", raw)
	}

	if captured["model"] != "gpt-text" {
		t.Fatalf("expected text model, got %v", captured["model"])
	}
	messages, _ := captured["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(messages))
	}
	user, _ := messages[1].(map[string]any)
	prompt, _ := user["content"].(string)
	if !strings.Contains(prompt, "Invoice Total: $42.00") || !strings.Contains(prompt, "3-page") {
		t.Fatalf("unexpected prompt: %s", prompt)
	}
}

func TestExtractFromImageUsesVisionModelAndDataURL(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"[]"}}]}`))
	}))
	defer server.Close()

	client := New(server.URL, "", "gpt-text", "gpt-vision", Options{})
	if _, err := client.ExtractFromImage(context.Background(), "image/png", []byte{0x89, 0x50}); err != nil {
		t.Fatalf("ExtractFromImage() error = %v", err)
	}

	if captured["model"] != "gpt-vision" {
		t.Fatalf("expected vision model, got %v", captured["model"])
	}
	messages, _ := captured["messages"].([]any)
	user, _ := messages[1].(map[string]any)
	parts, _ := user["content"].([]any)
	if len(parts) != 2 {
		t.Fatalf("expected text+image parts, got %d", len(parts))
	}
	image, _ := parts[1].(map[string]any)
	imageURL, _ := image["image_url"].(map[string]any)
	url, _ := imageURL["url"].(string)
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Fatalf("unexpected image url: %q", url)
	}
}

func TestCompletionErrorIncludesHTTPBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL, "", "gpt-text", "gpt-vision", Options{})
	_, err := client.GenerateAnswer(context.Background(), "question?")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestCompletionRejectsEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := New(server.URL, "", "gpt-text", "gpt-vision", Options{})
	if _, err := client.GenerateAnswer(context.Background(), "question?"); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}
