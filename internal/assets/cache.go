package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ManifestFilename is the filename emitted by the asset packer.
const ManifestFilename = "manifest.json"

// ManifestEntry describes an asset present in the packed output.
type ManifestEntry struct {
	Path    string    `json:"path"`
	SHA256  string    `json:"sha256"`
	Size    int64     `json:"size"`
	MIME    string    `json:"mime"`
	ModTime time.Time `json:"mod_time"`
}

// Manifest captures metadata for cache and ETag handling.
type Manifest struct {
	GeneratedAt time.Time                `json:"generated_at"`
	Files       map[string]ManifestEntry `json:"files"`
}

// Add records data under rel, hashing it for the ETag.
func (m *Manifest) Add(rel string, data []byte, modTime time.Time) {
	if m.Files == nil {
		m.Files = make(map[string]ManifestEntry)
	}
	sum := sha256.Sum256(data)
	m.Files[rel] = ManifestEntry{
		Path:    rel,
		SHA256:  hex.EncodeToString(sum[:]),
		Size:    int64(len(data)),
		MIME:    TypeFor(rel),
		ModTime: modTime.UTC(),
	}
}

// LoadManifest reads and parses a manifest from the provided filesystem.
func LoadManifest(fsys fs.FS) (*Manifest, error) {
	if fsys == nil {
		return nil, errors.New("nil filesystem")
	}

	data, err := fs.ReadFile(fsys, ManifestFilename)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	if manifest.Files == nil {
		manifest.Files = make(map[string]ManifestEntry)
	}

	return &manifest, nil
}

// Cache keeps static asset bytes in memory after the first read.
type Cache struct {
	src    *Source
	assets sync.Map // string -> *CachedAsset
}

// CachedAsset is the cached representation of a static asset.
type CachedAsset struct {
	Path         string
	Body         []byte
	ETag         string
	LastModified time.Time
	MIME         string
}

// NewCache constructs a Cache over src.
func NewCache(src *Source) *Cache {
	return &Cache{src: src}
}

// Get returns the cached asset, reading and caching it on the first request.
// Disk sources are re-read every time.
func (c *Cache) Get(name string) (*CachedAsset, error) {
	if c == nil || c.src == nil {
		return nil, errors.New("cache is nil")
	}
	if name == "" {
		return nil, errors.New("path is empty")
	}

	if v, ok := c.assets.Load(name); ok {
		return v.(*CachedAsset), nil
	}

	body, err := c.src.ReadFile(name)
	if err != nil {
		return nil, err
	}

	asset := &CachedAsset{Path: name, Body: body, MIME: TypeFor(name)}

	if m := c.src.Manifest; m != nil {
		if entry, ok := m.Files[name]; ok {
			asset.ETag = Quote(entry.SHA256)
			if entry.MIME != "" {
				asset.MIME = entry.MIME
			}
		}
	}
	if asset.ETag == "" {
		asset.ETag = ETag(body)
	}
	if mt, err := c.src.ModTime(name); err == nil {
		asset.LastModified = mt
	} else {
		asset.LastModified = c.src.GeneratedAt
	}
	if asset.MIME == "application/octet-stream" {
		asset.MIME = http.DetectContentType(body)
	}

	if c.src.Kind() == SourceEmbedded {
		c.assets.Store(name, asset)
	}

	return asset, nil
}

// Serve writes the asset honoring conditional request headers.
func (a *CachedAsset) Serve(w http.ResponseWriter, r *http.Request, cacheControl string) {
	header := w.Header()
	header.Set("Content-Type", a.MIME)
	if cacheControl != "" {
		header.Set("Cache-Control", cacheControl)
	}
	SetValidators(header, a.ETag, a.LastModified)

	if NotModified(r, a.ETag, a.LastModified) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	header.Set("Content-Length", strconv.Itoa(len(a.Body)))
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(a.Body)
}

// ETag returns the strong, quoted SHA-256 ETag of body.
func ETag(body []byte) string {
	sum := sha256.Sum256(body)
	return Quote(hex.EncodeToString(sum[:]))
}

// Quote wraps a bare hash in double quotes.
func Quote(hash string) string {
	if hash == "" || strings.HasPrefix(hash, "\"") {
		return hash
	}
	return "\"" + hash + "\""
}

// SetValidators sets ETag and Last-Modified when known.
func SetValidators(header http.Header, etag string, lastModified time.Time) {
	if etag != "" {
		header.Set("ETag", etag)
	}
	if !lastModified.IsZero() {
		header.Set("Last-Modified", lastModified.UTC().Format(http.TimeFormat))
	}
}

// NotModified reports whether the request's validators match. If-None-Match
// takes precedence over If-Modified-Since.
func NotModified(r *http.Request, etag string, lastModified time.Time) bool {
	if inm := r.Header.Get("If-None-Match"); inm != "" {
		if etag == "" {
			return false
		}
		for _, candidate := range strings.Split(inm, ",") {
			candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
			if candidate == etag || candidate == "*" {
				return true
			}
		}
		return false
	}

	if !lastModified.IsZero() {
		if ims := r.Header.Get("If-Modified-Since"); ims != "" {
			if ts, err := http.ParseTime(ims); err == nil {
				return !lastModified.Truncate(time.Second).After(ts)
			}
		}
	}

	return false
}

func jsonManifest(m *Manifest) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteManifest stores m as indented JSON.
func WriteManifest(path string, m *Manifest) error {
	data, err := jsonManifest(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
