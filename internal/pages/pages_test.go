package pages

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/devswami/portfolio/internal/contact"
	"github.com/devswami/portfolio/internal/form"
	"github.com/devswami/portfolio/internal/projects"
)

func TestRenderWithPartials(t *testing.T) {
	fsys := fstest.MapFS{
		"partials/nav.html": {Data: []byte(`{{define "nav"}}<nav>{{if active .RoutePath "/projects"}}<b>Projects</b>{{else}}Projects{{end}}</nav>{{end}}`)},
		"projects.html":     {Data: []byte(`{{template "nav" .}}{{range .Projects}}<li>{{.Title}} ({{join .Tech ", "}})</li>{{end}}`)},
	}
	mgr := New(fsys, nil)

	out, err := mgr.Render("projects.html", PageData{
		RoutePath: "/projects/PJ-1",
		Projects:  []projects.Project{{ID: "PJ-1", Title: "<Shop>", Tech: []string{"Go", "HTMX"}}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	got := string(out)
	if !strings.Contains(got, "<b>Projects</b>") {
		t.Fatalf("nav partial not active: %s", got)
	}
	if !strings.Contains(got, "<li>&lt;Shop&gt; (Go, HTMX)</li>") {
		t.Fatalf("unexpected project list: %s", got)
	}
}

func TestRenderFormView(t *testing.T) {
	fsys := fstest.MapFS{
		"contact.html": {Data: []byte(`{{with .Form}}{{.Values.Name}}|{{.Error "email"}}|{{.ErrorMessage}}{{end}}`)},
	}
	mgr := New(fsys, nil)

	view := form.View{
		Values:       contact.Submission{Name: "Ann"},
		Errors:       contact.FieldErrors{contact.FieldEmail: contact.MsgEmailRequired},
		ErrorMessage: "boom",
	}
	out, err := mgr.Render("contact.html", PageData{Form: &view})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(out) != "Ann|Email is required|boom" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestInvalidateReloads(t *testing.T) {
	fsys := fstest.MapFS{"home.html": {Data: []byte(`v1`)}}
	mgr := New(fsys, nil)

	if out, _ := mgr.Render("home.html", PageData{}); string(out) != "v1" {
		t.Fatalf("unexpected %q", out)
	}

	fsys["home.html"] = &fstest.MapFile{Data: []byte(`v2`)}
	if out, _ := mgr.Render("home.html", PageData{}); string(out) != "v1" {
		t.Fatalf("expected cached template, got %q", out)
	}

	mgr.Invalidate("home.html")
	if out, _ := mgr.Render("home.html", PageData{}); string(out) != "v2" {
		t.Fatalf("expected reloaded template, got %q", out)
	}

	if !mgr.Exists("home.html") || mgr.Exists("nope.html") {
		t.Fatal("Exists mismatch")
	}
}

func TestRenderMissingTemplate(t *testing.T) {
	mgr := New(fstest.MapFS{}, nil)
	if _, err := mgr.Render("missing.html", PageData{}); err == nil {
		t.Fatal("expected error")
	}
}
