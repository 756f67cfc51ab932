// Package errpages holds the built-in error pages used when the site does
// not ship its own 404.html or 500.html.
package errpages

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"

	"github.com/devswami/portfolio/internal/pages"
)

const (
	default404Source = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>404 - Page not found | {{if .SiteName}}{{.SiteName}}{{else}}Portfolio{{end}}</title>
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <meta name="robots" content="noindex">
  <link rel="stylesheet" href="/static/app.css">
</head>
<body class="error-page">
  <main class="error">
    <h1 class="error__code">404</h1>
    <p class="error__title">This page wandered off.</p>
    <p class="error__text">Nothing lives at <code>{{.RoutePath}}</code>. It may have moved, or the project is no longer listed.</p>
    <nav class="error__links">
      <a class="button" href="/">Home</a>
      <a class="button button--ghost" href="/projects">Projects</a>
    </nav>
  </main>
</body>
</html>
`
	default500Source = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>500 - Something broke | {{if .SiteName}}{{.SiteName}}{{else}}Portfolio{{end}}</title>
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <meta name="robots" content="noindex">
  <link rel="stylesheet" href="/static/app.css">
</head>
<body class="error-page">
  <main class="error">
    <h1 class="error__code error__code--alert">500</h1>
    <p class="error__title">Something broke on my side.</p>
    <p class="error__text">Please try again in a moment. If it keeps happening, reach me through the contact page.</p>
    <nav class="error__links">
      <a class="button" href="/">Home</a>
      <a class="button button--ghost" href="/contact">Contact</a>
    </nav>
  </main>
</body>
</html>
`
)

// Page names looked up in the site before falling back to the built-ins.
const (
	NotFoundPage = "404.html"
	ServerPage   = "500.html"
)

var (
	default404Template = parseTemplate(NotFoundPage, default404Source)
	default500Template = parseTemplate(ServerPage, default500Source)
)

const (
	fallback404 = `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>Page Not Found</title><meta name="robots" content="noindex"></head><body><h1>404 Not Found</h1><p>The requested page could not be found.</p></body></html>`
	fallback500 = `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>Server Error</title><meta name="robots" content="noindex"></head><body><h1>500 Internal Server Error</h1><p>Something went wrong.</p></body></html>`
)

// Default404 renders the embedded 404 template using the provided page data.
func Default404(data pages.PageData) []byte {
	return renderTemplate(default404Template, data, fallback404)
}

// Default500 renders the embedded 500 template using the provided page data.
func Default500(data pages.PageData) []byte {
	return renderTemplate(default500Template, data, fallback500)
}

// For returns the site page name and built-in renderer for status. Server
// errors map to 500, everything else to 404.
func For(status int) (string, func(pages.PageData) []byte) {
	if status >= http.StatusInternalServerError {
		return ServerPage, Default500
	}
	return NotFoundPage, Default404
}

func renderTemplate(tmpl *template.Template, data pages.PageData, fallback string) []byte {
	if tmpl == nil {
		return []byte(fallback)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return []byte(fallback)
	}

	return buf.Bytes()
}

func parseTemplate(name, src string) *template.Template {
	if strings.TrimSpace(src) == "" {
		return nil
	}

	tmpl, err := template.New(name).
		Option("missingkey=zero").
		Parse(src)
	if err != nil {
		return nil
	}

	return tmpl
}
