// Package robots renders robots.txt.
package robots

import (
	"bytes"
	"errors"
	"net/url"
	"strings"
)

const defaultPolicy = "User-agent: *\nAllow: /"

// Build constructs a robots.txt payload using the provided optional policy.
// The sitemap URL is always appended (or rewritten). disallow adds a
// Disallow line per path not already present, placed after the last
// User-agent group line.
func Build(baseURL, policy string, disallow ...string) ([]byte, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	sitemapURL := u.ResolveReference(&url.URL{Path: "/sitemap.xml"}).String()

	if strings.TrimSpace(policy) == "" {
		policy = defaultPolicy
	}

	lines := withDisallow(splitPolicy(policy), disallow)

	seen := false
	for i, line := range lines {
		if strings.HasPrefix(strings.ToLower(line), "sitemap:") {
			lines[i] = "Sitemap: " + sitemapURL
			seen = true
		}
	}

	if !seen {
		lines = append(lines, "Sitemap: "+sitemapURL)
	}

	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(strings.TrimRight(line, "\r"))
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
}

// ErrBaseURLRequired is returned when the base URL is missing.
var ErrBaseURLRequired = errors.New("base URL is required")

func splitPolicy(policy string) []string {
	policy = strings.ReplaceAll(policy, "\r\n", "\n")
	policy = strings.ReplaceAll(policy, "\r", "\n")
	parts := strings.Split(policy, "\n")
	trimmed := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		trimmed = append(trimmed, p)
	}
	return trimmed
}

func withDisallow(lines, paths []string) []string {
	if len(paths) == 0 {
		return lines
	}

	present := make(map[string]bool)
	insertAt := len(lines)
	for i, line := range lines {
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "disallow:") {
			present[strings.TrimSpace(line[len("disallow:"):])] = true
		}
		if strings.HasPrefix(lower, "sitemap:") && insertAt == len(lines) {
			insertAt = i
		}
	}

	var extra []string
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" && !present[p] {
			present[p] = true
			extra = append(extra, "Disallow: "+p)
		}
	}

	out := make([]string, 0, len(lines)+len(extra))
	out = append(out, lines[:insertAt]...)
	out = append(out, extra...)
	return append(out, lines[insertAt:]...)
}
