package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/devswami/portfolio/internal/assets"
	"github.com/devswami/portfolio/internal/config"
	"github.com/devswami/portfolio/internal/contact"
	"github.com/devswami/portfolio/internal/log"
)

// TestShippedSite renders every route of the site under web/ with the
// production configuration.
func TestShippedSite(t *testing.T) {
	root := filepath.Join("..", "..")
	cfg, err := config.Load(filepath.Join(root, "config.prod.json"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	src, err := assets.NewDisk(filepath.Join(root, "web"))
	if err != nil {
		t.Fatalf("disk source: %v", err)
	}
	if err := cfg.Validate(src.PageExists); err != nil {
		t.Fatalf("validate: %v", err)
	}

	srv, err := New(cfg, src, log.Discard(), Deps{APIURL: "http://localhost:4000"})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	if got := len(srv.Catalogue().All()); got != 4 {
		t.Fatalf("expected 4 projects, got %d", got)
	}

	cases := []struct {
		path string
		want []string
	}{
		{"/", []string{"Dev Swami", `class="hero intro"`}},
		{"/about", []string{"Languages", "Prometheus"}},
		{"/projects", []string{`href="/projects/PJ-1"`, `href="/projects/PJ-4"`}},
		{"/projects/PJ-1", []string{"NDA", "/static/img/pj1-checkout.png"}},
		{"/projects/PJ-2", []string{"This was a backend project, so there is nothing to show :)"}},
		{"/projects/PJ-3", []string{"costs a lot to host"}},
		{"/contact", []string{`action="/contact"`, `data-api="http://localhost:4000"`}},
		{"/api/projects", []string{`"PJ-3"`}},
		{"/static/app.css", []string{"--accent"}},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d body %s", tc.path, rec.Code, rec.Body.String())
		}
		for _, want := range tc.want {
			if !strings.Contains(rec.Body.String(), want) {
				t.Fatalf("%s: body missing %q", tc.path, want)
			}
		}
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects/PJ-9", nil))
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "Dev Swami") {
		t.Fatalf("unknown project: status %d", rec.Code)
	}
}

// TestContactScriptRules keeps the browser checks in web/static/contact.js on
// the same messages and rules as the contact package.
func TestContactScriptRules(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "web", "static", "contact.js"))
	if err != nil {
		t.Fatalf("read contact.js: %v", err)
	}
	script := string(data)

	for _, msg := range []string{
		contact.MsgNameRequired,
		contact.MsgEmailRequired,
		contact.MsgEmailInvalid,
		contact.MsgMessageRequired,
	} {
		if !strings.Contains(script, "'"+msg+"'") {
			t.Fatalf("contact.js lacks message %q", msg)
		}
	}

	if !strings.Contains(script, `/^[^\s@]+@[^\s@]+\.[^\s@]+$/`) {
		t.Fatalf("contact.js email pattern differs from the server pattern")
	}
	if !strings.Contains(script, "emailPattern.test(value)") || strings.Contains(script, "value = value.trim()") {
		t.Fatalf("contact.js must test the email pattern on the untrimmed value")
	}
	if !strings.Contains(script, "field === 'email' ? check(field, input.value) : ''") {
		t.Fatalf("contact.js must clear name/message errors while typing")
	}
}
