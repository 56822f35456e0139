package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDoJSON_RoundTripAndHeaders(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/echo" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "k" {
			t.Errorf("missing api key header")
		}
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["msg"]})
	}))
	defer ts.Close()

	c, err := NewWithBaseURL(ts.URL+"/", time.Second)
	if err != nil {
		t.Fatalf("NewWithBaseURL: %v", err)
	}

	var out struct {
		Echo string `json:"echo"`
	}
	err = c.DoJSON(context.Background(), http.MethodPost, "v1/echo", map[string]string{"X-Api-Key": "k"}, map[string]string{"msg": "hi"}, &out)
	if err != nil {
		t.Fatalf("DoJSON returned error: %v", err)
	}
	if out.Echo != "hi" {
		t.Fatalf("echo = %q, want hi", out.Echo)
	}
}

func TestDoJSON_Non2xxIsHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTeapot)
	}))
	defer ts.Close()

	err := New(time.Second).DoJSON(context.Background(), http.MethodGet, ts.URL, nil, nil, nil)

	var he *HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *HTTPError, got %v", err)
	}
	if he.StatusCode != http.StatusTeapot || he.Body != "nope" {
		t.Fatalf("unexpected HTTPError: %+v", he)
	}
}

func TestDoJSON_RelativePathWithoutBaseURL(t *testing.T) {
	err := New(0).DoJSON(context.Background(), http.MethodGet, "/x", nil, nil, nil)
	if err == nil {
		t.Fatalf("expected error for relative path without BaseURL")
	}
}

func TestPostMultipart_SendsFileAndFields(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if r.FormValue("source") != "scan" {
			t.Errorf("missing field source")
		}
		f, fh, err := r.FormFile("image")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		if fh.Filename != "pill.png" || string(b) != "PNGDATA" {
			t.Errorf("unexpected file %s %q", fh.Filename, b)
		}
		if fh.Header.Get("Content-Type") != "image/png" {
			t.Errorf("unexpected part content type %q", fh.Header.Get("Content-Type"))
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	raw, err := New(time.Second).PostMultipart(context.Background(), ts.URL, nil, FilePart{
		Field:       "image",
		FileName:    "pill.png",
		ContentType: "image/png",
		Data:        []byte("PNGDATA"),
	}, map[string]string{"source": "scan"})
	if err != nil {
		t.Fatalf("PostMultipart returned error: %v", err)
	}
	if string(raw) != `{"ok":true}` {
		t.Fatalf("unexpected body %q", raw)
	}
}
