package dev

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/vango-dev/pagegen/pkg/pages"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Pages</title>
</head>
<body>
<h1>Pages</h1>
{{- if .Routes}}
<ul class="page-index">
{{- range .Routes}}
<li><a href="{{.Path}}">{{.Identifier}}</a></li>
{{- end}}
</ul>
{{- else}}
<p>No pages yet.</p>
{{- end}}
{{.Inject}}
</body>
</html>
`))

var notFoundTemplate = template.Must(template.New("notfound").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Page not found</title>
</head>
<body>
<h1>Page not found</h1>
<p>Nothing is published at <code>{{.Path}}</code>.</p>
<a href="{{.HomePath}}">{{.HomeText}}</a>
{{.Inject}}
</body>
</html>
`))

var unavailableTemplate = template.Must(template.New("unavailable").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>pagegen preview</title>
</head>
<body style="font-family: system-ui; padding: 40px;">
<h1 style="color: #cc3333;">Pages Not Generated</h1>
<pre>{{.Error}}</pre>
<p style="color: #888;">The page will reload when generation succeeds.</p>
{{.Inject}}
</body>
</html>
`))

// indexHandler lists every generated page.
func indexHandler(reg *pages.Registry, inject template.HTML) http.HandlerFunc {
	var generated []pages.RouteEntry
	for _, r := range reg.Artifact().Routes {
		if r.Generated {
			generated = append(generated, r)
		}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err := indexTemplate.Execute(w, struct {
			Routes []pages.RouteEntry
			Inject template.HTML
		}{generated, inject})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// notFoundHandler renders the not-found view with a link home.
func notFoundHandler(reg *pages.Registry, home pages.Link, inject template.HTML) http.HandlerFunc {
	homePath, ok := reg.PathFor(home.To)
	if !ok {
		homePath = "/"
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		notFoundTemplate.Execute(w, struct {
			Path     string
			HomePath string
			HomeText string
			Inject   template.HTML
		}{r.URL.Path, homePath, home.Text, inject})
	}
}

// isCatchAll reports whether a route path ends in a ":..name" segment.
func isCatchAll(routePath string) bool {
	i := strings.LastIndex(routePath, "/")
	return strings.HasPrefix(routePath[i+1:], ":..")
}
