package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q, want application/json", r.Header.Get("Accept"))
		}
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`{"ok":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status_message":"missing"}`))
		}
	}))
	defer srv.Close()

	body, err := GetJSON(context.Background(), srv.Client(), srv.URL+"/ok")
	if err != nil {
		t.Fatalf("GetJSON() error: %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Errorf("body = %q", body)
	}

	_, err = GetJSON(context.Background(), srv.Client(), srv.URL+"/missing?api_key=secret")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusNotFound {
		t.Errorf("code = %d, want 404", statusErr.Code)
	}
	if statusErr.URL != srv.URL+"/missing?api_key=REDACTED" {
		t.Errorf("URL not redacted: %q", statusErr.URL)
	}
}

func TestGetJSONRejectsPlainHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent")
	}))
	defer srv.Close()

	if _, err := GetJSON(context.Background(), srv.Client(), srv.URL); err == nil {
		t.Fatal("expected error for http:// URL")
	}
}

func TestPostJSON(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		raw, _ := io.ReadAll(r.Body)
		var payload map[string]any
		if err := json.Unmarshal(raw, &payload); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"echo": payload["query"]})
	}))
	defer srv.Close()

	body, err := PostJSON(context.Background(), srv.Client(), srv.URL, map[string]string{"query": "{ Page { id } }"})
	if err != nil {
		t.Fatalf("PostJSON() error: %v", err)
	}
	var out struct {
		Echo string `json:"echo"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if out.Echo != "{ Page { id } }" {
		t.Errorf("echo = %q", out.Echo)
	}
}

func TestGetHonoursContext(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Get(ctx, srv.Client(), srv.URL); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
