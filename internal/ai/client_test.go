package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateResponse(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Time for your medicine."},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := New("key", srv.URL, "test-model")
	if c.Model() != "test-model" {
		t.Errorf("Model() = %q, want test-model", c.Model())
	}
	got, err := c.GenerateResponse(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("GenerateResponse() error = %v", err)
	}
	if got != "Time for your medicine." {
		t.Errorf("GenerateResponse() = %q", got)
	}
	if gotModel != "test-model" {
		t.Errorf("model sent = %q, want test-model", gotModel)
	}
}

func TestGenerateResponseNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	if _, err := New("key", srv.URL, "m").GenerateResponse(context.Background(), "s", "u"); err == nil {
		t.Error("GenerateResponse() error = nil, want error for empty choices")
	}
}
