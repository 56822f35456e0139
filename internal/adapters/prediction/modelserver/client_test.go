package modelserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"pill-tracker/internal/ports/prediction"
)

func TestPredict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/classify" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("X-Api-Key") != "k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		if string(b) != "img-bytes" || hdr.Filename != "pill.png" || hdr.Header.Get("Content-Type") != "image/png" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"class":"Paracetamol","score":0.87},{"class":"Ibuprofen","score":0.1}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{
		BaseURL:        srv.URL,
		APIKey:         "k",
		Path:           "/v2/classify",
		Field:          "file",
		LabelPath:      "results.0.class",
		ConfidencePath: "results.0.score",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	res, err := c.Predict(context.Background(), prediction.Image{FileName: "pill.png", ContentType: "image/png", Data: []byte("img-bytes")})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if res.Label != "Paracetamol" || res.Confidence != 0.87 {
		t.Fatalf("unexpected result: %#v", res)
	}
}

func TestPredict_UpstreamErrors(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status 500": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"not json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>oops</html>"))
		},
		"missing label": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"prediction":{"confidence":0.5}}`))
		},
	}

	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			c, _ := NewClient(Config{BaseURL: srv.URL})
			_, err := c.Predict(context.Background(), prediction.Image{Data: []byte("x")})
			if !errors.Is(err, prediction.ErrUpstream) {
				t.Fatalf("expected ErrUpstream, got %v", err)
			}
		})
	}
}

func TestPredict_DefaultPaths(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != DefaultPath {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"prediction":{"label":"Amoxicillin"}}`))
	}))
	defer srv.Close()

	c, _ := NewClient(Config{BaseURL: srv.URL})
	res, err := c.Predict(context.Background(), prediction.Image{Data: []byte("x")})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if res.Label != "Amoxicillin" || res.Confidence != 0 {
		t.Fatalf("unexpected result: %#v", res)
	}
}

func TestPredict_NotConfigured(t *testing.T) {
	c, _ := NewClient(Config{})
	if _, err := c.Predict(context.Background(), prediction.Image{}); !errors.Is(err, prediction.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
