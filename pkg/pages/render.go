package pages

import (
	"bytes"
	"encoding/json"
	"fmt"
	"go/format"
	"go/token"
	"strconv"
	"text/template"
)

// ImportPath is the import path generated Go code uses for this package.
const ImportPath = "github.com/vango-dev/pagegen/pkg/pages"

// reserved are names generated code already declares at package scope.
var reserved = map[string]bool{
	"Routes":   true,
	"Views":    true,
	"Artifact": true,
	"init":     true,
	"pages":    true,
}

// FuncName returns the Go function name generated for a page identifier.
// Identifiers that are not usable as-is (leading digit, Go keyword, or a
// name the generated file declares itself) get a "Page" prefix.
func FuncName(identifier string) string {
	if identifier == "" {
		return "Page"
	}
	c := identifier[0]
	if (c >= '0' && c <= '9') || token.IsKeyword(identifier) || reserved[identifier] {
		return "Page" + identifier
	}
	return identifier
}

var goTemplate = template.Must(template.New("pages_gen.go").Funcs(template.FuncMap{
	"quote":    strconv.Quote,
	"funcName": FuncName,
	"params":   paramsLiteral,
}).Parse(`// Code generated by pagegen. DO NOT EDIT.

package {{.Package}}

import "` + ImportPath + `"

// Routes lists the predefined routes followed by one route per page.
var Routes = []pages.RouteEntry{
{{- range .Routes}}
	{Route: pages.Route{Path: {{quote .Path}}, Identifier: {{quote .Identifier}}{{params .Params}}}{{if .Generated}}, Generated: true{{end}}},
{{- end}}
}

// Views maps page identifiers to their view definitions.
var Views = map[string]func() pages.View{
{{- range .Views}}
	{{quote .Identifier}}: {{funcName .Identifier}},
{{- end}}
}

// Artifact returns the route table and views for use with pages.Registry.
func Artifact() *pages.Artifact {
	a := &pages.Artifact{Package: {{quote .Package}}, Routes: Routes}
	for _, r := range Routes {
		if r.Generated {
			a.Views = append(a.Views, Views[r.Identifier]())
		}
	}
	return a
}
{{range .Views}}
// {{funcName .Identifier}} is the view for page {{.Identifier}}.
func {{funcName .Identifier}}() pages.View {
	return pages.View{
		Identifier: {{quote .Identifier}},
		Title: {{quote .Title}},
		Body: {{quote .Body}},
		Home: pages.Link{To: {{quote .Home.To}}, Text: {{quote .Home.Text}}},
	}
}
{{end}}`))

func paramsLiteral(params []string) string {
	if len(params) == 0 {
		return ""
	}
	var b bytes.Buffer
	b.WriteString(", Params: []string{")
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Quote(p))
	}
	b.WriteString("}")
	return b.String()
}

// RenderGo renders the artifact as a gofmt-formatted Go source file.
func RenderGo(a *Artifact) ([]byte, error) {
	if !token.IsIdentifier(a.Package) {
		return nil, fmt.Errorf("rendering routes: invalid package name %q", a.Package)
	}

	var buf bytes.Buffer
	if err := goTemplate.Execute(&buf, a); err != nil {
		return nil, fmt.Errorf("rendering routes: %w", err)
	}

	code, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting generated code: %w", err)
	}
	return code, nil
}

// RenderJSON renders the artifact as an indented JSON manifest.
func RenderJSON(a *Artifact) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		return nil, fmt.Errorf("rendering manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// Render renders the artifact in the named format ("go" or "json").
func Render(a *Artifact, kind string) ([]byte, error) {
	switch kind {
	case "", "go":
		return RenderGo(a)
	case "json":
		return RenderJSON(a)
	default:
		return nil, fmt.Errorf("unknown output format %q", kind)
	}
}
