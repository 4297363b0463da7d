package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/justestif/moodtunes/internal/llm"
	"github.com/justestif/moodtunes/internal/music"
)

func TestChat(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s, want /api/chat", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(chatResponse{Message: chatMessage{Role: "assistant", Content: "How are you feeling today?"}})
	}))
	defer server.Close()

	c := New(server.URL, "test-model", llm.DefaultSampling(), 0)
	text, err := c.Chat(context.Background(), "ask a question", []music.Message{{Role: music.RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if text != "How are you feeling today?" {
		t.Errorf("Chat() = %q", text)
	}

	if got.Model != "test-model" || got.Stream {
		t.Errorf("request model/stream = %q/%v", got.Model, got.Stream)
	}
	if len(got.Messages) != 2 || got.Messages[1].Content != "ask a question" {
		t.Errorf("messages = %+v", got.Messages)
	}
	if got.Options.TopK != 40 || got.Options.NumPredict != 1024 {
		t.Errorf("options = %+v", got.Options)
	}
	if got.Format != nil {
		t.Errorf("format = %v, want nil for chat", got.Format)
	}
}

func TestGenerateForwardsSchema(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(chatResponse{Message: chatMessage{Content: `{"ok":true}`}})
	}))
	defer server.Close()

	c := New(server.URL, "", llm.DefaultSampling(), 0)
	schema := &llm.Schema{Name: "x", Definition: map[string]any{"type": "object"}}
	if _, err := c.Generate(context.Background(), "p", schema); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	format, ok := got["format"].(map[string]any)
	if !ok || format["type"] != "object" {
		t.Errorf("format = %v, want schema object", got["format"])
	}
}

func TestChatErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "{}"},
		{name: "ollama error field", status: http.StatusOK, body: `{"error":"model not found"}`},
		{name: "empty content", status: http.StatusOK, body: `{"message":{"content":"  "}}`, wantErr: llm.ErrEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := New(server.URL, "", llm.DefaultSampling(), 0).Chat(context.Background(), "p", nil)
			if err == nil {
				t.Fatal("Chat() error = nil, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Chat() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
