// Package sitemap renders sitemap.xml for the site's pages and projects.
package sitemap

import (
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// Entry is one URL in the sitemap. Priority is omitted when zero.
type Entry struct {
	Path       string
	LastMod    time.Time
	ChangeFreq string
	Priority   float64
}

// ErrBaseURLRequired indicates Build was called without a base URL.
var ErrBaseURLRequired = errors.New("base URL is required")

// Build generates the sitemap document, XML declaration included. Entries
// are emitted sorted by path; duplicate paths keep the first entry.
func Build(baseURL string, entries []Entry) ([]byte, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	seen := make(map[string]struct{}, len(sorted))
	urls := make([]urlEntry, 0, len(sorted))

	for _, e := range sorted {
		if _, dup := seen[e.Path]; dup {
			continue
		}
		seen[e.Path] = struct{}{}

		ref, err := url.Parse(e.Path)
		if err != nil {
			return nil, fmt.Errorf("sitemap path %q: %w", e.Path, err)
		}

		u := urlEntry{
			Loc:        base.ResolveReference(ref).String(),
			ChangeFreq: e.ChangeFreq,
		}
		if !e.LastMod.IsZero() {
			u.LastMod = e.LastMod.UTC().Format(time.RFC3339)
		}
		if e.Priority > 0 {
			u.Priority = fmt.Sprintf("%.1f", e.Priority)
		}
		urls = append(urls, u)
	}

	body, err := xml.MarshalIndent(urlSet{XMLNS: sitemapNS, URLs: urls}, "", "  ")
	if err != nil {
		return nil, err
	}

	return append([]byte(xml.Header), body...), nil
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	XMLNS   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}
