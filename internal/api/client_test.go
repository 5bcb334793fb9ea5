package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newClient(t *testing.T, origin string) *Client {
	t.Helper()
	c, err := NewClient(origin, 5*time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient("", time.Second); err == nil {
		t.Fatalf("expected error for empty origin")
	}
	c := newClient(t, "http://localhost:1337/")
	if c.Origin() != "http://localhost:1337" {
		t.Fatalf("expected trailing slash trimmed, got %q", c.Origin())
	}
}

func TestLoginAttachesBearerToken(t *testing.T) {
	var authSeen string
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/local", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		_, _ = w.Write([]byte(`{"jwt":"tok-123"}`))
	})
	mux.HandleFunc("/things", func(w http.ResponseWriter, r *http.Request) {
		authSeen = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newClient(t, srv.URL)
	if err := c.Login(context.Background(), "admin", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	var out []any
	if err := c.GetJSON(context.Background(), "/things", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if authSeen != "Bearer tok-123" {
		t.Fatalf("expected bearer header, got %q", authSeen)
	}
}

func TestLoginRejectsEmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jwt":""}`))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	if err := c.Login(context.Background(), "admin", "secret"); err == nil {
		t.Fatalf("expected error for empty token")
	}
}

func TestGetJSONStatusErrorIncludesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not allowed here", http.StatusForbidden)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	err := c.GetJSON(context.Background(), "/secret", nil)
	if err == nil {
		t.Fatalf("expected status error")
	}
	if !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "not allowed here") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetJSONEmptyBodySkipsDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	var out map[string]any
	if err := c.GetJSON(context.Background(), "/empty", &out); err != nil {
		t.Fatalf("expected empty body to be tolerated, got %v", err)
	}
	if out != nil {
		t.Fatalf("expected out untouched, got %v", out)
	}
}

func TestResolveURL(t *testing.T) {
	c := newClient(t, "http://cms.example.com")
	cases := []struct{ in, want string }{
		{"/uploads/a.png", "http://cms.example.com/uploads/a.png"},
		{"uploads/a.png", "http://cms.example.com/uploads/a.png"},
		{"https://cdn.example.com/a.png", "https://cdn.example.com/a.png"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := c.ResolveURL(tc.in); got != tc.want {
			t.Fatalf("ResolveURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDownloadReturnsBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	data, err := c.Download(context.Background(), "/uploads/x.bin")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("unexpected data %q", data)
	}
}
