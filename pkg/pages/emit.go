package pages

const (
	// DefaultPackage is the package name of generated Go code.
	DefaultPackage = "site"

	// DefaultHome is the identifier of the route that page views link back to.
	DefaultHome = "Home"

	// DefaultHomeText is the text of the link back to the home route.
	DefaultHomeText = "Go Home"
)

// EmitOptions configures Emit.
type EmitOptions struct {
	// Package is the Go package name for RenderGo (default: "site").
	Package string

	// Home is the identifier of the home route (default: "Home").
	Home string

	// HomeText is the home link text (default: "Go Home").
	HomeText string
}

func (o EmitOptions) withDefaults() EmitOptions {
	if o.Package == "" {
		o.Package = DefaultPackage
	}
	if o.Home == "" {
		o.Home = DefaultHome
	}
	if o.HomeText == "" {
		o.HomeText = DefaultHomeText
	}
	return o
}

// Emit merges predefined routes with discovered pages. The route table lists
// every predefined route verbatim, in order, followed by one generated entry
// per page in the order given. Emit performs no I/O and identical inputs
// always produce an identical Artifact.
func Emit(predefined []Route, found []Page, opts EmitOptions) (*Artifact, error) {
	opts = opts.withDefaults()

	a := &Artifact{
		Package: opts.Package,
		Routes:  make([]RouteEntry, 0, len(predefined)+len(found)),
		Views:   make([]View, 0, len(found)),
	}

	for _, r := range predefined {
		a.Routes = append(a.Routes, RouteEntry{Route: cloneRoute(r)})
	}

	for _, p := range found {
		if !ValidName(p.Name) {
			return nil, invalidName(p.Name, p.Path)
		}

		a.Routes = append(a.Routes, RouteEntry{
			Route:     Route{Path: p.Path, Identifier: p.Name},
			Generated: true,
		})
		a.Views = append(a.Views, View{
			Identifier: p.Name,
			Title:      p.Name,
			Body:       p.Content,
			Home:       Link{To: opts.Home, Text: opts.HomeText},
		})
	}

	return a, nil
}

func cloneRoute(r Route) Route {
	if r.Params != nil {
		r.Params = append([]string(nil), r.Params...)
	}
	return r
}
