package middleware

import (
	"net/http"
	"strings"
)

const (
	corsMethods = "GET,HEAD,PUT,PATCH,POST,DELETE"
	corsMaxAge  = "600"
)

// CORS answers cross-origin requests. An origin list containing "*" (or an
// empty list) allows every origin; otherwise matching origins are echoed.
// Preflight requests are answered with 204 and never reach next.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowAll := len(origins) == 0
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			allowAll = true
		}
		if o != "" {
			allowed[strings.ToLower(o)] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			header := w.Header()

			switch {
			case allowAll:
				header.Set("Access-Control-Allow-Origin", "*")
			case origin != "":
				header.Add("Vary", "Origin")
				if _, ok := allowed[strings.ToLower(origin)]; ok {
					header.Set("Access-Control-Allow-Origin", origin)
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				header.Set("Access-Control-Allow-Methods", corsMethods)
				if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
					header.Set("Access-Control-Allow-Headers", reqHeaders)
					header.Add("Vary", "Access-Control-Request-Headers")
				}
				header.Set("Access-Control-Max-Age", corsMaxAge)
				header.Set("Content-Length", "0")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
