// Package packer copies the pages, referenced static files and content data
// of the site into build/public and generates the embed wrapper for it.
package packer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/devswami/portfolio/internal/assets"
	"github.com/devswami/portfolio/internal/config"
	"github.com/devswami/portfolio/internal/projects"
)

// ConfigFilename is the packed copy of the site configuration.
const ConfigFilename = "config.json"

// Options locate the inputs and outputs of a pack run. Empty fields take
// the repository defaults.
type Options struct {
	ConfigPath string
	WebDir     string
	BuildDir   string
	Logger     *slog.Logger
	// Now stamps the manifest; defaults to time.Now.
	Now func() time.Time
}

// Result summarises a pack run.
type Result struct {
	Files     int
	Bytes     int64
	PublicDir string
}

// Run executes the asset packing pipeline.
func Run(opts Options) (*Result, error) {
	opts.applyDefaults()
	return opts.run()
}

func (o *Options) applyDefaults() {
	if strings.TrimSpace(o.ConfigPath) == "" {
		o.ConfigPath = "config.prod.json"
	}
	if strings.TrimSpace(o.WebDir) == "" {
		o.WebDir = "web"
	}
	if strings.TrimSpace(o.BuildDir) == "" {
		o.BuildDir = "build"
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

func (o *Options) run() (*Result, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}

	pagesDir := filepath.Join(o.WebDir, assets.PagesDir)
	if err := cfg.Validate(func(name string) bool {
		_, err := os.Stat(filepath.Join(pagesDir, filepath.FromSlash(name)))
		return err == nil
	}); err != nil {
		return nil, err
	}

	publicDir := filepath.Join(o.BuildDir, "public")
	if err := os.RemoveAll(publicDir); err != nil {
		return nil, fmt.Errorf("clean build directory: %w", err)
	}
	if err := os.MkdirAll(publicDir, 0o755); err != nil {
		return nil, fmt.Errorf("create build directory: %w", err)
	}

	p := &pack{
		webDir:    o.WebDir,
		publicDir: publicDir,
		logger:    o.Logger,
		manifest:  assets.Manifest{GeneratedAt: o.Now().UTC()},
		assetSet:  make(map[string]struct{}),
	}

	pageList, err := p.pageNames(cfg)
	if err != nil {
		return nil, err
	}
	for _, page := range pageList {
		data, err := p.copy(path.Join(assets.PagesDir, page), true)
		if err != nil {
			return nil, err
		}
		if data != nil {
			p.collect(collectAssets(data))
		}
	}

	if err := p.packContent(cfg.Content); err != nil {
		return nil, err
	}

	assetList := make([]string, 0, len(p.assetSet))
	for a := range p.assetSet {
		assetList = append(assetList, a)
	}
	sort.Strings(assetList)
	for _, a := range assetList {
		if _, err := p.copy(a, false); err != nil {
			return nil, err
		}
	}

	if err := p.writeConfig(cfg); err != nil {
		return nil, err
	}

	if err := assets.WriteManifest(filepath.Join(publicDir, assets.ManifestFilename), &p.manifest); err != nil {
		return nil, err
	}

	if err := writeEmbeddedFile(o.BuildDir); err != nil {
		return nil, err
	}

	res := &Result{PublicDir: publicDir}
	for _, entry := range p.manifest.Files {
		res.Files++
		res.Bytes += entry.Size
	}
	o.Logger.Info("assets packed", "files", res.Files, "bytes", res.Bytes, "dir", publicDir)

	return res, nil
}

type pack struct {
	webDir    string
	publicDir string
	logger    *slog.Logger
	manifest  assets.Manifest
	assetSet  map[string]struct{}
}

func (p *pack) collect(list []string) {
	for _, a := range list {
		p.assetSet[a] = struct{}{}
	}
}

// pageNames lists route pages, the error overrides and shared partials.
func (p *pack) pageNames(cfg *config.Config) ([]string, error) {
	set := make(map[string]struct{})
	for _, route := range cfg.Routes {
		if route.Page != "" {
			set[route.Page] = struct{}{}
		}
	}
	for _, name := range []string{"404.html", "500.html"} {
		set[name] = struct{}{}
	}

	partials, err := fs.Glob(os.DirFS(filepath.Join(p.webDir, assets.PagesDir)), "partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("list partials: %w", err)
	}
	for _, name := range partials {
		set[name] = struct{}{}
	}

	list := make([]string, 0, len(set))
	for name := range set {
		list = append(list, name)
	}
	sort.Strings(list)

	return list, nil
}

// copy copies rel into the public tree and records it in the manifest. A
// missing optional file returns nil data and no error.
func (p *pack) copy(rel string, optional bool) ([]byte, error) {
	src := filepath.Join(p.webDir, filepath.FromSlash(rel))
	dst := filepath.Join(p.publicDir, filepath.FromSlash(rel))

	info, err := os.Stat(src)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			p.logger.Debug("optional file missing", "path", rel)
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", rel, err)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}

	if err := writeFile(dst, data); err != nil {
		return nil, err
	}

	p.manifest.Add(rel, data, info.ModTime())
	return data, nil
}

// packContent copies the content files and queues the images the projects
// reference.
func (p *pack) packContent(content config.Content) error {
	data, err := p.copy(content.Projects, false)
	if err != nil {
		return err
	}
	if _, err := p.copy(content.Skills, false); err != nil {
		return err
	}
	if _, err := p.copy(content.Resume, false); err != nil {
		return err
	}

	var doc struct {
		Projects []projects.Project `json:"projects"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode %s: %w", content.Projects, err)
	}
	for _, pr := range doc.Projects {
		for _, img := range append([]string{pr.Image}, pr.Images...) {
			if normalized, ok := normalizeAssetPath(img); ok {
				p.assetSet[normalized] = struct{}{}
			}
		}
	}

	return nil
}

func (p *pack) writeConfig(cfg *config.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := writeFile(filepath.Join(p.publicDir, ConfigFilename), data); err != nil {
		return err
	}
	p.manifest.Add(ConfigFilename, data, p.manifest.GeneratedAt)
	return nil
}

func writeFile(dst string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", dst, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}

func collectAssets(htmlBytes []byte) []string {
	node, err := html.Parse(bytes.NewReader(htmlBytes))
	if err != nil {
		return nil
	}

	found := make(map[string]struct{})
	add := func(ref string) {
		if ref == "" {
			return
		}
		if normalized, ok := normalizeAssetPath(ref); ok {
			found[normalized] = struct{}{}
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			tag := strings.ToLower(n.Data)
			switch tag {
			case "link", "a":
				// Anchors only count when they point into static/, such as
				// the résumé download.
				add(getAttr(n, "href"))
			case "script", "img", "source", "video", "audio", "track", "iframe", "image", "use":
				add(getAttr(n, "src"))
				if tag == "video" {
					add(getAttr(n, "poster"))
				}
				for _, ref := range parseSrcSet(getAttr(n, "srcset")) {
					add(ref)
				}
			case "meta":
				if name := strings.ToLower(getAttr(n, "property")); name == "og:image" || name == "twitter:image" {
					add(getAttr(n, "content"))
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(node)

	list := make([]string, 0, len(found))
	for asset := range found {
		list = append(list, asset)
	}

	sort.Strings(list)

	return list
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, key) {
			return strings.TrimSpace(attr.Val)
		}
	}
	return ""
}

func parseSrcSet(srcset string) []string {
	if srcset == "" {
		return nil
	}
	parts := strings.Split(srcset, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if fields := strings.Fields(part); len(fields) > 0 {
			out = append(out, fields[0])
		}
	}
	return out
}

// normalizeAssetPath maps a local reference to its path under static/.
// External URLs, template actions and paths outside static/ are rejected.
func normalizeAssetPath(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.Contains(ref, "{{") {
		return "", false
	}

	lower := strings.ToLower(ref)
	for _, scheme := range []string{"http://", "https://", "//", "data:", "mailto:", "tel:", "#"} {
		if strings.HasPrefix(lower, scheme) {
			return "", false
		}
	}

	if idx := strings.IndexAny(ref, "?#"); idx >= 0 {
		ref = ref[:idx]
	}

	ref = strings.TrimPrefix(ref, "/")
	ref = strings.TrimPrefix(ref, "./")
	for strings.HasPrefix(ref, "../") {
		ref = strings.TrimPrefix(ref, "../")
	}

	ref = path.Clean(filepath.ToSlash(ref))
	if !strings.HasPrefix(ref, assets.StaticDir+"/") {
		return "", false
	}

	return ref, true
}

const embeddedSource = `// Code generated by internal/assets/packer. DO NOT EDIT.

package build

import "embed"

// FS holds the packed site under public/.
//
//go:embed all:public
var FS embed.FS

// EmbeddedConfig returns the site configuration packed with the assets, or
// nil when none was packed.
func EmbeddedConfig() []byte {
	data, err := FS.ReadFile("public/` + ConfigFilename + `")
	if err != nil {
		return nil
	}
	return data
}
`

func writeEmbeddedFile(buildDir string) error {
	target := filepath.Join(buildDir, "embedded.go")
	if err := os.WriteFile(target, []byte(embeddedSource), 0o644); err != nil {
		return fmt.Errorf("write embedded.go: %w", err)
	}
	return nil
}
