package server

import (
	"net/http"
	"path"
	"strings"

	"github.com/devswami/portfolio/internal/assets"
	"github.com/devswami/portfolio/internal/config"
	"github.com/devswami/portfolio/internal/form"
	"github.com/devswami/portfolio/internal/intro"
	"github.com/devswami/portfolio/internal/pages"
)

func (s *Server) servePage(w http.ResponseWriter, r *http.Request, route config.Route) {
	data := s.routeData(route, r.URL.Path)

	key := route.Path
	if route.Intro {
		// The intro decision runs before any header is written because the
		// store sets cookies.
		data.PlayIntro = intro.Decide(intro.NewCookieStore(w, r), intro.NavigationFromRequest(r))
		if data.PlayIntro {
			key += "#intro"
		}
		w.Header().Add("Vary", "Cookie")
		w.Header().Set("Cache-Control", "private, no-cache")
	}

	entry, err := s.loadPage(key, route.Page, data)
	if err != nil {
		s.logger.Error("render page", "path", route.Path, "error", err)
		s.serveError(w, r, http.StatusInternalServerError)
		return
	}

	s.writePage(w, r, route.Path, entry)
}

func (s *Server) serveProject(w http.ResponseWriter, r *http.Request, route config.Route, prefix string) {
	id := strings.TrimPrefix(r.URL.Path, prefix)
	if id == "" || strings.Contains(id, "/") {
		s.serveNotFound(w, r)
		return
	}

	project, ok := s.catalogue.Get(id)
	if !ok {
		s.serveNotFound(w, r)
		return
	}

	data := s.routeData(route, r.URL.Path)
	data.Title = project.Title
	data.Project = &project

	entry, err := s.loadPage(r.URL.Path, route.Page, data)
	if err != nil {
		s.logger.Error("render project", "id", id, "error", err)
		s.serveError(w, r, http.StatusInternalServerError)
		return
	}

	s.writePage(w, r, route.Path, entry)
}

func (s *Server) routeData(route config.Route, reqPath string) pages.PageData {
	data := s.basePageData(reqPath, route.Title)
	data.Projects = s.catalogue.All()
	data.Skills = s.catalogue.Skills()
	if route.Path == "/contact" {
		data.Form = &form.View{}
	}
	return data
}

// loadPage renders page once per cache key. Dev mode re-renders every time
// so template edits show up on reload.
func (s *Server) loadPage(key, page string, data pages.PageData) (*pageEntry, error) {
	if !s.deps.Dev {
		if entry, ok := s.pageCache.Load(key); ok {
			return entry.(*pageEntry), nil
		}
	} else {
		s.pageMgr.Reset()
	}

	body, err := s.pageMgr.Render(page, data)
	if err != nil {
		return nil, err
	}

	entry := &pageEntry{Body: body, ETag: assets.ETag(body)}
	if mt, err := s.source.ModTime(path.Join(assets.PagesDir, page)); err == nil {
		entry.LastModified = mt
	} else {
		entry.LastModified = s.source.GeneratedAt
	}

	if !s.deps.Dev {
		s.pageCache.Store(key, entry)
	}

	return entry, nil
}

func (s *Server) writePage(w http.ResponseWriter, r *http.Request, routePath string, entry *pageEntry) {
	header := w.Header()
	header.Set("Content-Type", "text/html; charset=utf-8")
	if header.Get("Cache-Control") == "" {
		header.Set("Cache-Control", "public, max-age=300")
	}
	s.applyRouteHeaders(w, routePath)
	assets.SetValidators(header, entry.ETag, entry.LastModified)

	if assets.NotModified(r, entry.ETag, entry.LastModified) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(entry.Body)
}

func (s *Server) applyRouteHeaders(w http.ResponseWriter, path string) {
	header := w.Header()
	for key, val := range s.cfg.HeaderDirectives(path) {
		header.Set(key, val)
	}
}
