package packer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/devswami/portfolio/internal/assets"
	"github.com/devswami/portfolio/internal/config"
)

func TestCollectAssets(t *testing.T) {
	html := []byte(`<!doctype html><html><head>
<link rel="stylesheet" href="/static/app.css">
<link rel="icon" href="/static/favicon.ico">
<link rel="canonical" href="https://example.com/">
</head><body>
<img src="/static/img/logo.png" srcset="/static/img/logo.png 1x, https://cdn.example.com/logo@2x.png 2x">
<img src="{{.Project.Image}}">
<script src="/static/app.js"></script>
<video src="/static/video.mp4" poster="/static/poster.jpg"></video>
<a href="/static/resume.pdf?v=2" download>Résumé</a>
<a href="/projects">Projects</a>
<a href="mailto:me@example.com">Mail</a>
</body></html>`)

	assets := collectAssets(html)
	expected := []string{
		"static/app.css",
		"static/app.js",
		"static/favicon.ico",
		"static/img/logo.png",
		"static/poster.jpg",
		"static/resume.pdf",
		"static/video.mp4",
	}

	if len(assets) != len(expected) {
		t.Fatalf("expected %d assets, got %d: %#v", len(expected), len(assets), assets)
	}

	for i, asset := range assets {
		if asset != expected[i] {
			t.Fatalf("asset mismatch at %d: want %s got %s", i, expected[i], asset)
		}
	}
}

func TestNormalizeAssetPath(t *testing.T) {
	cases := map[string]string{
		"/static/a.css":        "static/a.css",
		"./static/a.css#x":     "static/a.css",
		"../../static/img.png": "static/img.png",
		"/static/../pages/x":   "",
		"/about":               "",
		"tel:+123":             "",
	}
	for in, want := range cases {
		got, ok := normalizeAssetPath(in)
		if got != want || ok != (want != "") {
			t.Fatalf("normalizeAssetPath(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
}

func TestRunGeneratesManifestAndEmbed(t *testing.T) {
	tdir := t.TempDir()
	webDir := filepath.Join(tdir, "web")
	buildDir := filepath.Join(tdir, "build")

	writeTestFile(t, filepath.Join(webDir, "pages", "home.html"), `<!doctype html><html><head><link rel="stylesheet" href="/static/app.css"></head><body>{{template "footer" .}}</body></html>`)
	writeTestFile(t, filepath.Join(webDir, "pages", "partials", "footer.html"), `{{define "footer"}}<a href="/static/resume.pdf">CV</a>{{end}}`)
	writeTestFile(t, filepath.Join(webDir, "static", "app.css"), "body{}")
	writeTestFile(t, filepath.Join(webDir, "static", "resume.pdf"), "%PDF")
	writeTestFile(t, filepath.Join(webDir, "static", "shots", "pj1.png"), "PNG")
	writeTestFile(t, filepath.Join(webDir, "static", "unused.png"), "PNG")
	writeTestFile(t, filepath.Join(webDir, "content", "projects.json"), `{"projects":[{"id":"PJ-1","title":"Shop","description":"d","tech":["Go"],"image":"/static/shots/pj1.png"}]}`)
	writeTestFile(t, filepath.Join(webDir, "content", "skills.json"), `[]`)

	configPath := filepath.Join(tdir, "config.json")
	writeTestFile(t, configPath, `{
  "site": {"base_url": "https://example.com"},
  "routes": [{"path": "/", "page": "home.html", "title": "Home", "intro": true}]
}`)

	stamp := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	res, err := Run(Options{ConfigPath: configPath, WebDir: webDir, BuildDir: buildDir, Now: func() time.Time { return stamp }})
	if err != nil {
		t.Fatalf("packer run: %v", err)
	}

	manifestPath := filepath.Join(buildDir, "public", assets.ManifestFilename)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}

	var manifest assets.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}

	if !manifest.GeneratedAt.Equal(stamp) {
		t.Fatalf("unexpected generated_at %v", manifest.GeneratedAt)
	}

	want := []string{
		"pages/home.html",
		"pages/partials/footer.html",
		"static/app.css",
		"static/resume.pdf",
		"static/shots/pj1.png",
		"content/projects.json",
		"content/skills.json",
		ConfigFilename,
	}
	if len(manifest.Files) != len(want) || res.Files != len(want) {
		t.Fatalf("expected %d manifest entries, got %d: %+v", len(want), len(manifest.Files), manifest.Files)
	}
	for _, name := range want {
		if _, ok := manifest.Files[name]; !ok {
			t.Fatalf("manifest missing %s", name)
		}
	}
	if _, ok := manifest.Files["static/unused.png"]; ok {
		t.Fatalf("unreferenced asset packed")
	}
	if manifest.Files["static/resume.pdf"].MIME != "application/pdf" {
		t.Fatalf("unexpected resume mime %q", manifest.Files["static/resume.pdf"].MIME)
	}

	packed, err := os.ReadFile(filepath.Join(buildDir, "public", ConfigFilename))
	if err != nil {
		t.Fatalf("read packed config: %v", err)
	}
	cfg, err := config.Parse(packed)
	if err != nil {
		t.Fatalf("packed config does not parse: %v", err)
	}
	if !cfg.Routes[0].Intro || cfg.Content.Projects != config.DefaultProjectsPath {
		t.Fatalf("packed config lost fields: %+v", cfg)
	}

	embedded, err := os.ReadFile(filepath.Join(buildDir, "embedded.go"))
	if err != nil {
		t.Fatalf("embedded.go not generated: %v", err)
	}
	if !strings.Contains(string(embedded), "func EmbeddedConfig() []byte") {
		t.Fatalf("embedded.go lacks EmbeddedConfig")
	}
}

func TestRunFailsOnMissingContent(t *testing.T) {
	tdir := t.TempDir()
	webDir := filepath.Join(tdir, "web")

	writeTestFile(t, filepath.Join(webDir, "pages", "home.html"), `<p>home</p>`)
	configPath := filepath.Join(tdir, "config.json")
	writeTestFile(t, configPath, `{"site":{"base_url":"https://example.com"},"routes":[{"path":"/","page":"home.html"}]}`)

	_, err := Run(Options{ConfigPath: configPath, WebDir: webDir, BuildDir: filepath.Join(tdir, "build")})
	if err == nil || !strings.Contains(err.Error(), "projects.json") {
		t.Fatalf("expected missing content error, got %v", err)
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	mustMkdir(t, filepath.Dir(path))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
