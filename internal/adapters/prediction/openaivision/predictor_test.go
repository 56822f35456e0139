package openaivision

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"pill-tracker/internal/ports/prediction"
)

func completion(content string) string {
	return `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",` +
		`"choices":[{"index":0,"message":{"role":"assistant","content":` + content + `},"finish_reason":"stop"}]}`
}

func newFakeAPI(t *testing.T, content string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" || r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		body, _ := io.ReadAll(r.Body)
		url := gjson.GetBytes(body, `messages.1.content.#(type=="image_url").image_url.url`).String()
		if !strings.HasPrefix(url, "data:image/png;base64,") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completion(content)))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPredict(t *testing.T) {
	srv := newFakeAPI(t, `"{\"label\":\"Paracetamol\",\"confidence\":0.91}"`)

	p, err := New(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := p.Predict(context.Background(), prediction.Image{ContentType: "image/png", Data: []byte("png")})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if res.Label != "Paracetamol" || res.Confidence != 0.91 {
		t.Fatalf("unexpected result: %#v", res)
	}
}

func TestPredict_UpstreamFailure(t *testing.T) {
	srv := newFakeAPI(t, `"ok"`)

	p, _ := New(Config{APIKey: "wrong-key", BaseURL: srv.URL + "/v1"})
	if _, err := p.Predict(context.Background(), prediction.Image{ContentType: "image/png", Data: []byte("png")}); !errors.Is(err, prediction.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestParseAnswer(t *testing.T) {
	res, err := parseAnswer("```json\n{\"label\": \"Ibuprofen\", \"confidence\": 0.5}\n```")
	if err != nil || res.Label != "Ibuprofen" || res.Confidence != 0.5 {
		t.Fatalf("fenced json: %#v %v", res, err)
	}

	if _, err := parseAnswer("I think it's ibuprofen"); !errors.Is(err, prediction.ErrUpstream) {
		t.Fatalf("expected ErrUpstream for prose, got %v", err)
	}
}

func TestNew_RequiresKey(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, prediction.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
