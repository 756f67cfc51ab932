package errpages

import (
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/devswami/portfolio/internal/pages"
)

func TestDefaultTemplatesMirrorWebPages(t *testing.T) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("unable to determine caller path")
	}

	root := filepath.Join(filepath.Dir(file), "..", "..", "web", "pages")

	cases := []struct {
		name     string
		source   string
		filename string
	}{
		{name: "404", source: default404Source, filename: NotFoundPage},
		{name: "500", source: default500Source, filename: ServerPage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			want, err := os.ReadFile(filepath.Join(root, tc.filename))
			if err != nil {
				t.Fatalf("read %s: %v", tc.filename, err)
			}

			if string(want) != tc.source {
				t.Fatalf("embedded template for %s does not match web/pages/%s", tc.name, tc.filename)
			}
		})
	}
}

func TestDefault404EscapesPath(t *testing.T) {
	body := string(Default404(pages.PageData{RoutePath: "/<script>", SiteName: "Dev Swami"}))

	if !strings.Contains(body, "&lt;script&gt;") {
		t.Fatalf("route path not escaped: %s", body)
	}
	if !strings.Contains(body, "404 - Page not found | Dev Swami") {
		t.Fatalf("site name missing: %s", body)
	}
}

func TestFor(t *testing.T) {
	name, render := For(http.StatusBadGateway)
	if name != ServerPage || !strings.Contains(string(render(pages.PageData{})), "500") {
		t.Fatalf("5xx should use the 500 page, got %s", name)
	}

	name, _ = For(http.StatusMethodNotAllowed)
	if name != NotFoundPage {
		t.Fatalf("4xx should use the 404 page, got %s", name)
	}
}
