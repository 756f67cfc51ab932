// Package server composes the portfolio site and its API into one handler.
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/devswami/portfolio/internal/api"
	"github.com/devswami/portfolio/internal/assets"
	"github.com/devswami/portfolio/internal/config"
	"github.com/devswami/portfolio/internal/contact"
	"github.com/devswami/portfolio/internal/errpages"
	"github.com/devswami/portfolio/internal/metrics"
	"github.com/devswami/portfolio/internal/middleware"
	"github.com/devswami/portfolio/internal/pages"
	"github.com/devswami/portfolio/internal/projects"
	"github.com/devswami/portfolio/internal/resume"
	"github.com/devswami/portfolio/internal/robots"
	"github.com/devswami/portfolio/internal/router"
	"github.com/devswami/portfolio/internal/sitemap"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-Id"

// Deps are the collaborators the server does not build itself. Catalogue
// and Resume default to the content files of the asset source.
type Deps struct {
	Contact        contact.Submitter
	Resume         resume.Source
	ResumeFilename string
	Catalogue      *projects.Catalogue
	Metrics        *metrics.Registry
	CORSOrigins    []string
	APIURL         string
	Dev            bool
}

// Server represents the HTTP server runtime.
type Server struct {
	cfg    *config.Config
	source *assets.Source
	logger *slog.Logger
	deps   Deps

	router  *router.Router
	handler http.Handler

	pageMgr    *pages.Manager
	assetCache *assets.Cache
	catalogue  *projects.Catalogue

	sitemap []byte
	robots  []byte

	pageCache  sync.Map // cache key -> *pageEntry
	errorCache sync.Map // page name -> []byte
}

// pageEntry caches rendered HTML and metadata.
type pageEntry struct {
	Body         []byte
	ETag         string
	LastModified time.Time
}

// New constructs a server instance.
func New(cfg *config.Config, src *assets.Source, logger *slog.Logger, deps Deps) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if src == nil {
		return nil, errors.New("asset source is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	pagesFS, err := src.Sub(assets.PagesDir)
	if err != nil {
		return nil, fmt.Errorf("pages fs: %w", err)
	}

	catalogue := deps.Catalogue
	if catalogue == nil {
		catalogue, err = projects.Load(src.FS, cfg.Content.Projects, cfg.Content.Skills)
		if err != nil {
			return nil, fmt.Errorf("load projects: %w", err)
		}
	}

	if deps.Resume == nil {
		deps.Resume = resume.FSSource{FS: src.FS, Name: cfg.Content.Resume}
	}

	srv := &Server{
		cfg:        cfg,
		source:     src,
		logger:     logger,
		deps:       deps,
		router:     router.New(),
		pageMgr:    pages.New(pagesFS, nil),
		assetCache: assets.NewCache(src),
		catalogue:  catalogue,
	}

	if srv.sitemap, err = sitemap.Build(cfg.Site.BaseURL, srv.sitemapEntries()); err != nil {
		return nil, fmt.Errorf("sitemap build: %w", err)
	}

	if srv.robots, err = robots.Build(cfg.Site.BaseURL, cfg.Site.RobotsPolicy, "/api/", "/metrics"); err != nil {
		return nil, fmt.Errorf("robots build: %w", err)
	}

	srv.registerRoutes()

	var observer middleware.RequestObserver
	if deps.Metrics != nil {
		observer = deps.Metrics
	}

	srv.handler = middleware.Chain(
		srv.router,
		middleware.Recover(logger, srv.recoverHandler),
		middleware.WithRequestID(RequestIDHeader),
		middleware.Logging(logger, observer),
		middleware.Compress(-1, 5),
	)

	return srv, nil
}

func (s *Server) registerRoutes() {
	get := []string{http.MethodGet}

	s.router.HandleFunc("/sitemap.xml", s.serveSitemap, get...)
	s.router.HandleFunc("/robots.txt", s.serveRobots, get...)
	s.router.HandleFunc("/health", s.serveHealth, get...)
	s.router.HandleFunc("/healthz", s.serveHealth, get...)
	s.router.HandlePrefix("/static/", http.HandlerFunc(s.serveStatic), get...)

	if s.deps.Metrics != nil {
		s.router.Handle("/metrics", s.deps.Metrics.Handler(), get...)
	}

	apiEngine := api.New(api.Options{
		Contact:        s.deps.Contact,
		Resume:         s.deps.Resume,
		ResumeFilename: s.deps.ResumeFilename,
		Catalogue:      s.catalogue,
		Logger:         s.logger,
	})
	s.router.HandlePrefix("/api/", middleware.CORS(s.deps.CORSOrigins)(apiEngine))

	for _, route := range s.cfg.RoutesByPath() {
		route := route

		if prefix, ok := route.Prefix(); ok {
			s.router.HandlePrefix(prefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				s.serveProject(w, r, route, prefix)
			}), get...)
			continue
		}

		if route.Path == "/contact" {
			s.router.HandleFunc(route.Path, func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodPost {
					s.handleContactSubmit(w, r, route)
					return
				}
				s.servePage(w, r, route)
			}, http.MethodGet, http.MethodPost)
			continue
		}

		s.router.HandleFunc(route.Path, func(w http.ResponseWriter, r *http.Request) {
			s.servePage(w, r, route)
		}, get...)
	}

	s.router.NotFound(http.HandlerFunc(s.serveNotFound))
	s.router.MethodNotAllowed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.serveError(w, r, http.StatusMethodNotAllowed)
	}))
}

// Handler exposes the server handler stack.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Catalogue returns the projects served by the site.
func (s *Server) Catalogue() *projects.Catalogue {
	return s.catalogue
}

func (s *Server) sitemapEntries() []sitemap.Entry {
	generated := s.cfg.LoadedAt()
	var entries []sitemap.Entry

	for _, route := range s.cfg.ExactRoutes() {
		e := sitemap.Entry{Path: route.Path, LastMod: generated, ChangeFreq: "monthly", Priority: 0.8}
		if route.Path == "/" {
			e.Priority = 1
		}
		entries = append(entries, e)
	}

	for _, route := range s.cfg.RoutesByPath() {
		prefix, ok := route.Prefix()
		if !ok {
			continue
		}
		for _, p := range s.catalogue.All() {
			entries = append(entries, sitemap.Entry{Path: prefix + p.ID, LastMod: generated, ChangeFreq: "yearly", Priority: 0.6})
		}
	}

	return entries
}

func (s *Server) serveStatic(w http.ResponseWriter, r *http.Request) {
	relPath := r.URL.Path[1:]

	asset, err := s.assetCache.Get(relPath)
	if err != nil {
		s.logger.Debug("static asset", "asset", relPath, "error", err)
		s.serveNotFound(w, r)
		return
	}

	cacheControl := "public, max-age=31536000, immutable"
	if s.deps.Dev {
		cacheControl = "no-cache"
	}
	asset.Serve(w, r, cacheControl)
}

func (s *Server) serveSitemap(w http.ResponseWriter, r *http.Request) {
	s.writeBytes(w, r, "application/xml", s.sitemap)
}

func (s *Server) serveRobots(w http.ResponseWriter, r *http.Request) {
	s.writeBytes(w, r, "text/plain; charset=utf-8", s.robots)
}

func (s *Server) writeBytes(w http.ResponseWriter, r *http.Request, contentType string, body []byte) {
	header := w.Header()
	header.Set("Content-Type", contentType)
	header.Set("Cache-Control", "public, max-age=300")
	header.Set("Content-Length", strconv.Itoa(len(body)))

	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(body)
}

func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	health := []byte(`{"status":"ok"}`)
	header := w.Header()
	header.Set("Content-Type", "application/json")
	header.Set("Cache-Control", "no-store, max-age=0")
	header.Set("Content-Length", strconv.Itoa(len(health)))

	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(health)
}

func (s *Server) serveNotFound(w http.ResponseWriter, r *http.Request) {
	s.serveError(w, r, http.StatusNotFound)
}

func (s *Server) recoverHandler(w http.ResponseWriter, r *http.Request, _ any) {
	s.serveError(w, r, http.StatusInternalServerError)
}

func (s *Server) serveError(w http.ResponseWriter, r *http.Request, status int) {
	pageName, fallback := errpages.For(status)
	data := s.basePageData(r.URL.Path, strconv.Itoa(status))
	data.Status = status

	var body []byte
	if cached, ok := s.errorCache.Load(pageName); ok && !s.deps.Dev {
		body = cached.([]byte)
	} else if s.pageMgr.Exists(pageName) {
		// The path is not part of cached error bodies.
		cacheData := data
		cacheData.RoutePath = ""
		rendered, err := s.pageMgr.Render(pageName, cacheData)
		if err == nil {
			body = rendered
			s.errorCache.Store(pageName, body)
		} else {
			s.logger.Error("render error page", "page", pageName, "error", err)
		}
	}

	if body == nil {
		body = fallback(data)
	}

	header := w.Header()
	header.Set("Content-Type", "text/html; charset=utf-8")
	header.Set("Cache-Control", "no-store, max-age=0")
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		_, _ = w.Write(body)
	}
}

func (s *Server) basePageData(path, title string) pages.PageData {
	return pages.PageData{
		Title:      title,
		SiteName:   s.cfg.Site.Name,
		BaseURL:    s.cfg.Site.BaseURL,
		NowRFC3339: s.cfg.LoadedAt().Format(time.RFC3339),
		RoutePath:  path,
		APIURL:     s.deps.APIURL,
	}
}
