package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completionServer(t *testing.T, status int, content string, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		if seen != nil {
			json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-3.5-turbo",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIGenerate(t *testing.T) {
	var seen chatRequest
	srv := completionServer(t, http.StatusOK, "  Ozar Police Station\n", &seen)

	g, err := NewOpenAI(Options{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"})
	if err != nil {
		t.Fatal(err)
	}
	got, err := g.Generate(context.Background(), "translate", "ओझर पोलीस स्टेशन")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Ozar Police Station" {
		t.Errorf("Generate = %q", got)
	}
	if seen.Model != DefaultModel {
		t.Errorf("model = %q, want %q", seen.Model, DefaultModel)
	}
	if len(seen.Messages) != 2 || seen.Messages[0].Role != "system" || seen.Messages[1].Content != "ओझर पोलीस स्टेशन" {
		t.Errorf("messages = %+v", seen.Messages)
	}
}

func TestOpenAIGenerateFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		content string
	}{
		{"server error", http.StatusInternalServerError, ""},
		{"empty content", http.StatusOK, "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := completionServer(t, tt.status, tt.content, nil)
			g, err := NewOpenAI(Options{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"})
			if err != nil {
				t.Fatal(err)
			}
			if _, err := g.Generate(context.Background(), "s", "u"); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestOpenAIGenerateEmptyIsSentinel(t *testing.T) {
	srv := completionServer(t, http.StatusOK, "", nil)
	g, _ := NewOpenAI(Options{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"})
	if _, err := g.Generate(context.Background(), "s", "u"); !errors.Is(err, ErrEmptyCompletion) {
		t.Errorf("err = %v, want ErrEmptyCompletion", err)
	}
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	if _, err := NewOpenAI(Options{}); err == nil {
		t.Error("expected error without api key")
	}
}
