// Package pages renders the site's html/template pages. Every page is parsed
// together with the shared partials under partials/.
package pages

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/devswami/portfolio/internal/form"
	"github.com/devswami/portfolio/internal/projects"
)

// PartialsGlob matches the templates shared by all pages.
const PartialsGlob = "partials/*.html"

// Manager handles template parsing and rendering.
type Manager struct {
	fs        fs.FS
	funcs     template.FuncMap
	templates sync.Map // string -> *template.Template
}

// New constructs a Manager for the provided filesystem containing page
// templates. funcs extends DefaultFuncs.
func New(fsys fs.FS, funcs template.FuncMap) *Manager {
	merged := DefaultFuncs()
	for k, v := range funcs {
		merged[k] = v
	}

	return &Manager{
		fs:    fsys,
		funcs: merged,
	}
}

// PageData is the templating context shared by every page.
type PageData struct {
	Title      string
	SiteName   string
	BaseURL    string
	NowRFC3339 string
	RoutePath  string
	Status     int

	// APIURL is where browser scripts post the contact form.
	APIURL string
	// PlayIntro is set on the landing page when the entrance animation
	// should run.
	PlayIntro bool

	Projects []projects.Project
	Project  *projects.Project
	Skills   []projects.SkillGroup
	Form     *form.View

	Extra map[string]any
}

// DefaultFuncs are available in every template.
func DefaultFuncs() template.FuncMap {
	return template.FuncMap{
		"join":  strings.Join,
		"lower": strings.ToLower,
		"year":  func() int { return time.Now().Year() },
		"active": func(current, target string) bool {
			if target == "/" {
				return current == "/"
			}
			return current == target || strings.HasPrefix(current, target+"/")
		},
	}
}

// Render executes the named template with the provided data.
func (m *Manager) Render(name string, data PageData) ([]byte, error) {
	tmpl, err := m.template(name)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}

	return buf.Bytes(), nil
}

// Exists reports whether the template file exists.
func (m *Manager) Exists(name string) bool {
	if m == nil || name == "" {
		return false
	}
	_, err := fs.Stat(m.fs, name)
	return err == nil
}

// Invalidate releases a template from the cache (useful in dev hot-reload).
func (m *Manager) Invalidate(name string) {
	if m == nil || name == "" {
		return
	}
	m.templates.Delete(name)
}

// Reset drops every cached template.
func (m *Manager) Reset() {
	if m == nil {
		return
	}
	m.templates.Range(func(k, _ any) bool {
		m.templates.Delete(k)
		return true
	})
}

func (m *Manager) template(name string) (*template.Template, error) {
	if m == nil {
		return nil, fs.ErrNotExist
	}

	if v, ok := m.templates.Load(name); ok {
		return v.(*template.Template), nil
	}

	src, err := fs.ReadFile(m.fs, name)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(name).
		Funcs(m.funcs).
		Option("missingkey=zero").
		Parse(string(src))
	if err != nil {
		return nil, err
	}

	partials, err := fs.Glob(m.fs, PartialsGlob)
	if err != nil {
		return nil, err
	}
	for _, p := range partials {
		body, err := fs.ReadFile(m.fs, p)
		if err != nil {
			return nil, err
		}
		if _, err := tmpl.New(path.Base(p)).Parse(string(body)); err != nil {
			return nil, fmt.Errorf("parse partial %s: %w", p, err)
		}
	}

	m.templates.Store(name, tmpl)
	return tmpl, nil
}
