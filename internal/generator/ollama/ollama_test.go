package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerate(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"response": "We are open on weekdays.",
			"done":     true,
		})
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, Model: "test-model", MaxNewTokens: 64})
	resp, err := c.Generate(context.Background(), "Context: x\nQuestion: y\nAnswer:")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if resp != "We are open on weekdays." {
		t.Errorf("unexpected response: %s", resp)
	}
	if got.Stream || got.Options.NumPredict != 64 || got.Model != "test-model" {
		t.Errorf("unexpected request %+v", got)
	}
}

func TestGenerate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	if _, err := NewClient(Config{BaseURL: server.URL}).Generate(context.Background(), "x"); err == nil {
		t.Error("should error on 404")
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{})
	if c.baseURL != "http://localhost:11434" || c.Model() != "tinyllama" || c.maxNewTokens != 300 {
		t.Errorf("defaults not applied: %+v", c)
	}
}
