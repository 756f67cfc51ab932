package router

import (
	"net/http"
	"sort"
	"strings"
)

// Router wires HTTP handlers without relying on ServeMux so custom 404 and
// 405 logic is possible.
type Router struct {
	exact            map[string]route
	prefixes         []prefixRoute
	notFound         http.Handler
	methodNotAllowed http.Handler
}

type route struct {
	handler http.Handler
	methods map[string]struct{}
}

type prefixRoute struct {
	route
	prefix string
}

// New constructs a fresh Router.
func New() *Router {
	return &Router{
		exact: make(map[string]route),
	}
}

// Handle registers an exact path match. With no methods every method is
// accepted; otherwise others get 405. GET implies HEAD.
func (r *Router) Handle(path string, handler http.Handler, methods ...string) {
	if path == "" || handler == nil {
		return
	}
	r.exact[path] = route{handler: handler, methods: methodSet(methods)}
}

// HandleFunc registers an exact path match via a function.
func (r *Router) HandleFunc(path string, fn http.HandlerFunc, methods ...string) {
	if fn == nil {
		return
	}
	r.Handle(path, fn, methods...)
}

// HandlePrefix registers a prefix match. The longest matching prefix wins.
func (r *Router) HandlePrefix(prefix string, handler http.Handler, methods ...string) {
	if prefix == "" || handler == nil {
		return
	}
	r.prefixes = append(r.prefixes, prefixRoute{prefix: prefix, route: route{handler: handler, methods: methodSet(methods)}})
	sort.SliceStable(r.prefixes, func(i, j int) bool {
		return len(r.prefixes[i].prefix) > len(r.prefixes[j].prefix)
	})
}

// NotFound sets the fallback handler.
func (r *Router) NotFound(handler http.Handler) {
	r.notFound = handler
}

// MethodNotAllowed sets the handler used when a path matches but the method
// does not. The Allow header is already set when it runs.
func (r *Router) MethodNotAllowed(handler http.Handler) {
	r.methodNotAllowed = handler
}

// ServeHTTP satisfies http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if rt, ok := r.exact[req.URL.Path]; ok {
		r.dispatch(w, req, rt)
		return
	}

	for _, pr := range r.prefixes {
		if strings.HasPrefix(req.URL.Path, pr.prefix) {
			r.dispatch(w, req, pr.route)
			return
		}
	}

	if r.notFound != nil {
		r.notFound.ServeHTTP(w, req)
		return
	}

	http.NotFound(w, req)
}

func (r *Router) dispatch(w http.ResponseWriter, req *http.Request, rt route) {
	if rt.allows(req.Method) {
		rt.handler.ServeHTTP(w, req)
		return
	}

	w.Header().Set("Allow", rt.allowHeader())
	if r.methodNotAllowed != nil {
		r.methodNotAllowed.ServeHTTP(w, req)
		return
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func (rt route) allows(method string) bool {
	if len(rt.methods) == 0 {
		return true
	}
	_, ok := rt.methods[method]
	return ok
}

func (rt route) allowHeader() string {
	list := make([]string, 0, len(rt.methods))
	for m := range rt.methods {
		list = append(list, m)
	}
	sort.Strings(list)
	return strings.Join(list, ", ")
}

func methodSet(methods []string) map[string]struct{} {
	if len(methods) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(methods)+1)
	for _, m := range methods {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m == "" {
			continue
		}
		set[m] = struct{}{}
		if m == http.MethodGet {
			set[http.MethodHead] = struct{}{}
		}
	}
	return set
}
