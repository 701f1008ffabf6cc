package providers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/certifier/internal/providers"
)

type chatServer struct {
	content  string
	status   int
	requests []map[string]any
	auth     string
}

func (s *chatServer) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/models", func(w http.ResponseWriter, r *http.Request) {
		if s.status != 0 {
			w.WriteHeader(s.status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[{"id":"test-model","object":"model","created":1,"owned_by":"test"}]}`))
	})

	mux.HandleFunc("POST /v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		s.auth = r.Header.Get("Authorization")

		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		s.requests = append(s.requests, body)

		if s.status != 0 {
			w.WriteHeader(s.status)
			w.Write([]byte(`{"error":{"message":"upstream unavailable","type":"server_error"}}`))
			return
		}

		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": s.content},
				"finish_reason": "stop",
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	return mux
}

func newTestAdapter(t *testing.T, s *chatServer, dialect providers.Dialect) *providers.OpenAIAdapter {
	t.Helper()
	srv := httptest.NewServer(s.handler())
	t.Cleanup(srv.Close)

	return providers.NewOpenAIAdapter(providers.BackendConfig{
		Name:         "test",
		Dialect:      dialect,
		BaseURL:      srv.URL + "/v1",
		APIKey:       "secret",
		Model:        "test-model",
		Capabilities: []string{"reasoning"},
		MaxTokens:    512,
		Temperature:  0.2,
	}, srv.Client())
}

func TestOpenAIAdapterAnalyze(t *testing.T) {
	s := &chatServer{content: "<think>short trace</think>\n" +
		`{"analysis":"clear","confidence":0.81,"verdict":"COHERENT","recommendations":["Name the approvers"]}`}
	a := newTestAdapter(t, s, providers.DialectReasoning)

	result, err := a.Analyze(context.Background(), providers.Request{
		LSU:          "All transactions over $10,000 require two-manager approval",
		AnalysisType: "security",
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if result.Confidence != 0.81 || result.Verdict != providers.VerdictCoherent || result.Reasoning != "short trace" {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.TechnicalDetails["model"] != "test-model" {
		t.Errorf("model detail missing: %v", result.TechnicalDetails)
	}
	if s.auth != "Bearer secret" {
		t.Errorf("authorization: got %q", s.auth)
	}

	if len(s.requests) != 1 {
		t.Fatalf("requests: got %d", len(s.requests))
	}
	msgs := s.requests[0]["messages"].([]any)
	system := msgs[0].(map[string]any)["content"].(string)
	user := msgs[1].(map[string]any)["content"].(string)

	if !strings.Contains(system, "Focus on security") {
		t.Error("system prompt missing analysis focus")
	}
	if !strings.Contains(user, "two-manager approval") {
		t.Error("user prompt missing requirement")
	}
	if s.requests[0]["model"] != "test-model" {
		t.Errorf("model: got %v", s.requests[0]["model"])
	}
}

func TestOpenAIAdapterErrors(t *testing.T) {
	t.Run("http error", func(t *testing.T) {
		a := newTestAdapter(t, &chatServer{status: http.StatusServiceUnavailable}, providers.DialectStructured)
		if _, err := a.Analyze(context.Background(), providers.Request{LSU: "x"}); err == nil {
			t.Error("expected error")
		}
		if err := a.Probe(context.Background()); err == nil {
			t.Error("expected probe error")
		}
	})

	t.Run("empty completion", func(t *testing.T) {
		a := newTestAdapter(t, &chatServer{content: "   "}, providers.DialectStructured)
		_, err := a.Analyze(context.Background(), providers.Request{LSU: "x"})
		if !errors.Is(err, providers.ErrEmptyCompletion) {
			t.Errorf("got %v, want ErrEmptyCompletion", err)
		}
	})
}

func TestOpenAIAdapterProbe(t *testing.T) {
	a := newTestAdapter(t, &chatServer{}, providers.DialectStructured)
	if err := a.Probe(context.Background()); err != nil {
		t.Errorf("probe: %v", err)
	}
}

func TestOpenAIAdapterGenerateStripsTrace(t *testing.T) {
	a := newTestAdapter(t, &chatServer{content: "<think>plan</think>package governance"}, providers.DialectReasoning)

	text, err := a.Generate(context.Background(), "Generate a complete Rego policy")
	if err != nil {
		t.Fatal(err)
	}
	if text != "package governance" {
		t.Errorf("got %q", text)
	}
}
