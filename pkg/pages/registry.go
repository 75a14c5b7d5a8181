package pages

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

var viewTemplate = template.Must(template.New("view").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.View.Title}}</title>
</head>
<body>
<h1>{{.View.Title}}</h1>
<div class="page-content">{{.View.Body}}</div>
<a href="{{.HomePath}}">{{.View.Home.Text}}</a>
{{.Inject}}
</body>
</html>
`))

// Registry serves an Artifact over HTTP. Generated routes render their view;
// predefined routes are served by the handlers registered with Handle.
type Registry struct {
	artifact *Artifact
	handlers map[string]http.Handler
	inject   template.HTML
}

// NewRegistry creates a registry for an artifact.
func NewRegistry(a *Artifact) *Registry {
	return &Registry{
		artifact: a,
		handlers: make(map[string]http.Handler),
	}
}

// Handle registers the handler for a predefined route identifier.
func (g *Registry) Handle(identifier string, h http.Handler) {
	g.handlers[identifier] = h
}

// HandleFunc registers a handler function for a predefined route identifier.
func (g *Registry) HandleFunc(identifier string, fn http.HandlerFunc) {
	g.Handle(identifier, fn)
}

// Inject sets markup appended to every rendered view (e.g., a reload script).
func (g *Registry) Inject(markup template.HTML) {
	g.inject = markup
}

// Artifact returns the artifact being served.
func (g *Registry) Artifact() *Artifact {
	return g.artifact
}

// PathFor returns the route path of the first entry with the identifier.
func (g *Registry) PathFor(identifier string) (string, bool) {
	for _, r := range g.artifact.Routes {
		if r.Identifier == identifier {
			return r.Path, true
		}
	}
	return "", false
}

// Mount registers every route on r in route table order. Predefined routes
// without a registered handler, and paths not starting with "/", are skipped.
func (g *Registry) Mount(r chi.Router) {
	for _, entry := range g.artifact.Routes {
		pattern := ChiPattern(entry.Path)
		if !strings.HasPrefix(pattern, "/") {
			continue
		}

		if !entry.Generated {
			if h, ok := g.handlers[entry.Identifier]; ok {
				r.Method(http.MethodGet, pattern, h)
			}
			continue
		}

		view, ok := g.artifact.View(entry.Identifier)
		if !ok {
			continue
		}
		r.Get(pattern, func(w http.ResponseWriter, req *http.Request) {
			g.ServeView(w, req, view)
		})
	}
}

// Handler returns a chi router with every route mounted.
func (g *Registry) Handler() http.Handler {
	r := chi.NewRouter()
	g.Mount(r)
	return r
}

// ServeView renders a view as an HTML page.
func (g *Registry) ServeView(w http.ResponseWriter, r *http.Request, v View) {
	homePath, ok := g.PathFor(v.Home.To)
	if !ok {
		homePath = "/"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := viewTemplate.Execute(w, struct {
		View     View
		HomePath string
		Inject   template.HTML
	}{v, homePath, g.inject})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ChiPattern converts a route path to a chi pattern:
//
//	/users/:id      → /users/{id}
//	/:..segments    → /*
//	/docs/:..rest   → /docs/*
func ChiPattern(routePath string) string {
	segments := strings.Split(routePath, "/")
	for i, seg := range segments {
		switch {
		case strings.HasPrefix(seg, ":.."):
			// Catch-all must be the last segment
			return strings.Join(append(segments[:i:i], "*"), "/")
		case strings.HasPrefix(seg, ":") && len(seg) > 1:
			segments[i] = "{" + seg[1:] + "}"
		}
	}
	return strings.Join(segments, "/")
}
