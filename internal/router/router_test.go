package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func named(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, name)
	})
}

func serve(r *Router, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRouterMatching(t *testing.T) {
	r := New()
	r.Handle("/", named("home"), http.MethodGet)
	r.HandlePrefix("/api/", named("api"))
	r.HandlePrefix("/api/projects/", named("project"))
	r.NotFound(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "missing")
	}))

	cases := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/", "home"},
		{http.MethodHead, "/", "home"},
		{http.MethodPost, "/api/contact", "api"},
		{http.MethodGet, "/api/projects/PJ-1", "project"},
		{http.MethodGet, "/nope", "missing"},
	}

	for _, tc := range cases {
		rec := serve(r, tc.method, tc.path)
		if rec.Body.String() != tc.body {
			t.Fatalf("%s %s: got %q, want %q", tc.method, tc.path, rec.Body.String(), tc.body)
		}
	}
}

func TestRouterMethodNotAllowed(t *testing.T) {
	r := New()
	r.Handle("/contact", named("contact"), http.MethodGet, http.MethodPost)

	rec := serve(r, http.MethodDelete, "/contact")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if got := rec.Header().Get("Allow"); got != "GET, HEAD, POST" {
		t.Fatalf("unexpected Allow header: %q", got)
	}

	r.MethodNotAllowed(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	if rec := serve(r, http.MethodPut, "/contact"); rec.Code != http.StatusTeapot {
		t.Fatalf("custom 405 handler not used, got %d", rec.Code)
	}
}
