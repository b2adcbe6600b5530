package assist

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/starford/laguz/internal/apperr"
)

func TestPromptBuilder(t *testing.T) {
	p := NewPrompt("Expand this idea.").WithContext("Go is a language.").Build()
	if !strings.HasPrefix(p, "Expand this idea.") {
		t.Errorf("prompt = %q, want instruction first", p)
	}
	if !strings.Contains(p, "HTML markup only") {
		t.Error("prompt missing format instruction")
	}
	if !strings.Contains(p, "no commentary") {
		t.Error("prompt missing commentary prohibition")
	}
	if !strings.HasSuffix(p, "Go is a language.") {
		t.Errorf("prompt = %q, want context last", p)
	}
}

func TestPresetPrompt(t *testing.T) {
	b, err := NewPresetPrompt("summarize")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.Build(), "Summarize") {
		t.Errorf("prompt = %q, want preset task", b.Build())
	}
	if _, err := NewPresetPrompt("nonsense"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown preset = %v, want ErrNotFound", err)
	}
}

func TestClient_AcceptsContentField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":"<p>generated</p>"}`))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL).Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatal(err)
	}
	if got != "<p>generated</p>" {
		t.Errorf("fragment = %q", got)
	}
}

func TestClient_AcceptsResultField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"<p>alt shape</p>"}`))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL).Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatal(err)
	}
	if got != "<p>alt shape</p>" {
		t.Errorf("fragment = %q", got)
	}
}

func TestClient_BackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Generate(context.Background(), "p"); !errors.Is(err, apperr.ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestClient_EmptyFragment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":"  "}`))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Generate(context.Background(), "p"); !errors.Is(err, apperr.ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}
