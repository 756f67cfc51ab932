// Package assets exposes the packed site (pages, static files and content
// data) from disk in development or from the embedded build otherwise.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"time"
)

// SourceKind identifies whether assets are served from disk or embedded data.
type SourceKind int

const (
	// SourceEmbedded represents assets served from the generated embedded FS.
	SourceEmbedded SourceKind = iota
	// SourceDisk represents assets served directly from disk (dev mode).
	SourceDisk
)

func (k SourceKind) String() string {
	if k == SourceDisk {
		return "disk"
	}
	return "embedded"
}

// Well-known directories below the site root.
const (
	PagesDir   = "pages"
	StaticDir  = "static"
	ContentDir = "content"
)

// Source is the site root. Paths are slash-separated and relative to it.
type Source struct {
	FS          fs.FS
	kind        SourceKind
	root        string
	Manifest    *Manifest
	GeneratedAt time.Time
}

// NewEmbedded constructs a Source from the packed filesystem. The manifest
// is required so ETags stay stable across restarts.
func NewEmbedded(fsys fs.FS) (*Source, error) {
	if fsys == nil {
		return nil, errors.New("embedded filesystem is nil")
	}

	manifest, err := LoadManifest(fsys)
	if err != nil {
		return nil, err
	}

	gen := manifest.GeneratedAt
	if gen.IsZero() {
		gen = time.Now().UTC()
	}

	return &Source{
		FS:          fsys,
		kind:        SourceEmbedded,
		Manifest:    manifest,
		GeneratedAt: gen,
	}, nil
}

// NewDisk constructs a Source from a directory on disk. A manifest in the
// directory is used when present.
func NewDisk(root string) (*Source, error) {
	if root == "" {
		return nil, errors.New("disk root is empty")
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("disk root %s must be a directory", root)
	}

	fsys := os.DirFS(root)
	src := &Source{
		FS:          fsys,
		kind:        SourceDisk,
		root:        root,
		GeneratedAt: time.Now().UTC(),
	}
	if m, err := LoadManifest(fsys); err == nil {
		src.Manifest = m
	}

	return src, nil
}

// Kind returns the source type.
func (s *Source) Kind() SourceKind {
	if s == nil {
		return SourceDisk
	}
	return s.kind
}

// Exists reports whether the specified relative path exists.
func (s *Source) Exists(name string) bool {
	if s == nil || s.FS == nil || name == "" {
		return false
	}
	_, err := fs.Stat(s.FS, name)
	return err == nil
}

// PageExists reports whether the page template is present beneath pages/.
func (s *Source) PageExists(page string) bool {
	if page == "" {
		return false
	}
	return s.Exists(path.Join(PagesDir, page))
}

// ReadFile reads a file relative to the root.
func (s *Source) ReadFile(name string) ([]byte, error) {
	if s == nil || s.FS == nil {
		return nil, errors.New("source is nil")
	}
	return fs.ReadFile(s.FS, name)
}

// ModTime returns the manifest time for name, falling back to the file's
// own mtime on disk and finally to the generation time.
func (s *Source) ModTime(name string) (time.Time, error) {
	if s == nil {
		return time.Time{}, errors.New("source is nil")
	}

	if s.Manifest != nil {
		if entry, ok := s.Manifest.Files[name]; ok {
			if !entry.ModTime.IsZero() {
				return entry.ModTime.UTC(), nil
			}
			return s.Manifest.GeneratedAt.UTC(), nil
		}
	}

	if s.kind == SourceDisk {
		info, err := fs.Stat(s.FS, name)
		if err != nil {
			return time.Time{}, err
		}
		return info.ModTime().UTC(), nil
	}

	return s.GeneratedAt, nil
}

// Sub returns a view into a nested directory within the source.
func (s *Source) Sub(dir string) (fs.FS, error) {
	if s == nil {
		return nil, errors.New("source is nil")
	}

	return fs.Sub(s.FS, dir)
}

// Root returns the disk root (dev mode) or empty string for embedded.
func (s *Source) Root() string {
	if s == nil {
		return ""
	}
	return s.root
}
