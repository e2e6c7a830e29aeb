package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/example/faceglow/internal/vision"
)

type capturedRequest struct {
	Model          string `json:"model"`
	MaxTokens      int    `json:"max_tokens"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type     string `json:"type"`
			Text     string `json:"text"`
			ImageURL struct {
				URL string `json:"url"`
			} `json:"image_url"`
		} `json:"content"`
	} `json:"messages"`
}

func newTestServer(t *testing.T, status int, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected authorization header: %s", got)
		}
		if captured != nil {
			if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyzeSendsPromptAndImage(t *testing.T) {
	var captured capturedRequest
	srv := newTestServer(t, http.StatusOK, `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"faceShape\":\"Oval\"}"},"finish_reason":"stop"}]}`, &captured)

	c := New(Options{APIKey: "sk-test", Model: "gpt-4o", BaseURL: srv.URL, MaxTokens: 2000}, zap.NewNop())
	reply, err := c.Analyze(context.Background(), "descreva", vision.Image{MIMEType: "image/png", Data: []byte("img")})
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if reply != `{"faceShape":"Oval"}` {
		t.Fatalf("unexpected reply: %s", reply)
	}

	if captured.Model != "gpt-4o" || captured.MaxTokens != 2000 {
		t.Fatalf("unexpected model settings: %+v", captured)
	}
	if captured.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected json_object response format, got %q", captured.ResponseFormat.Type)
	}
	if len(captured.Messages) != 1 || captured.Messages[0].Role != "user" {
		t.Fatalf("unexpected messages: %+v", captured.Messages)
	}
	parts := captured.Messages[0].Content
	if len(parts) != 2 || parts[0].Type != "text" || parts[0].Text != "descreva" {
		t.Fatalf("unexpected text part: %+v", parts)
	}
	if parts[1].Type != "image_url" || parts[1].ImageURL.URL != "data:image/png;base64,aW1n" {
		t.Fatalf("unexpected image part: %+v", parts[1])
	}
}

func TestAnalyzeReturnsErrorOnAPIFailure(t *testing.T) {
	srv := newTestServer(t, http.StatusInternalServerError, `{"error":{"message":"overloaded","type":"server_error"}}`, nil)

	c := New(Options{APIKey: "sk-test", BaseURL: srv.URL}, zap.NewNop())
	if _, err := c.Analyze(context.Background(), "p", vision.Image{Data: []byte("img")}); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestAnalyzeReturnsErrorWithoutChoices(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"id":"c1","object":"chat.completion","choices":[]}`, nil)

	c := New(Options{APIKey: "sk-test", BaseURL: srv.URL}, zap.NewNop())
	if _, err := c.Analyze(context.Background(), "p", vision.Image{Data: []byte("img")}); err == nil {
		t.Fatal("expected error, got nil")
	}
	if c.Name() != "openai" {
		t.Fatalf("unexpected name: %s", c.Name())
	}
}
