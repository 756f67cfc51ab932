// Package intro decides whether the landing-page intro animation plays.
// The animation plays on a visitor's first navigation in a session and again
// on every explicit reload.
package intro

import (
	"net/http"
	"strings"
)

// SeenKey is the session flag recording that the intro has been shown.
const SeenKey = "hasSeenHomeAnimation"

// Navigation is how the visitor arrived at the page.
type Navigation int

// Navigation kinds.
const (
	Navigate Navigation = iota
	Reload
	BackForward
)

func (n Navigation) String() string {
	switch n {
	case Reload:
		return "reload"
	case BackForward:
		return "back_forward"
	default:
		return "navigate"
	}
}

// Store is session-scoped key/value storage.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Clear(key string)
}

// ShouldPlay is the pure decision. A reload always plays and asks for the
// flag to be cleared; otherwise the intro plays unless the flag is set.
func ShouldPlay(seen bool, nav Navigation) (play, clearFlag bool) {
	if nav == Reload {
		return true, true
	}
	return !seen, false
}

// Decide applies ShouldPlay to store and records that the content is about to
// be shown, so the next in-session navigation skips the intro.
func Decide(store Store, nav Navigation) bool {
	v, _ := store.Get(SeenKey)
	play, clearFlag := ShouldPlay(v == "true", nav)
	if clearFlag {
		store.Clear(SeenKey)
	}
	store.Set(SeenKey, "true")
	return play
}

// NavigationFromRequest infers the navigation type from request headers.
// Browsers send Cache-Control: max-age=0 (or no-cache on a hard reload) when
// the visitor reloads a page.
func NavigationFromRequest(r *http.Request) Navigation {
	if r == nil {
		return Navigate
	}
	cc := strings.ToLower(r.Header.Get("Cache-Control"))
	if strings.Contains(cc, "max-age=0") || strings.Contains(cc, "no-cache") ||
		strings.EqualFold(r.Header.Get("Pragma"), "no-cache") {
		return Reload
	}
	return Navigate
}

// MapStore is an in-memory Store.
type MapStore map[string]string

// Get implements Store.
func (m MapStore) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Set implements Store.
func (m MapStore) Set(key, value string) { m[key] = value }

// Clear implements Store.
func (m MapStore) Clear(key string) { delete(m, key) }

// CookieStore keeps flags in session cookies, which expire with the browser
// session like sessionStorage does.
type CookieStore struct {
	r *http.Request
	w http.ResponseWriter
	// pending holds writes made during this request.
	pending map[string]*string
}

// NewCookieStore binds a store to one request/response pair.
func NewCookieStore(w http.ResponseWriter, r *http.Request) *CookieStore {
	return &CookieStore{r: r, w: w, pending: map[string]*string{}}
}

// Get implements Store.
func (c *CookieStore) Get(key string) (string, bool) {
	if v, ok := c.pending[key]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}
	ck, err := c.r.Cookie(key)
	if err != nil {
		return "", false
	}
	return ck.Value, true
}

// Set implements Store.
func (c *CookieStore) Set(key, value string) {
	c.pending[key] = &value
	http.SetCookie(c.w, &http.Cookie{
		Name:     key,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear implements Store.
func (c *CookieStore) Clear(key string) {
	c.pending[key] = nil
	http.SetCookie(c.w, &http.Cookie{Name: key, Value: "", Path: "/", MaxAge: -1})
}
