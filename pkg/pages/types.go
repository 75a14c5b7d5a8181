package pages

// Page is a content file discovered under the pages directory.
type Page struct {
	// Name is the file basename, used as the page identifier.
	Name string `json:"name"`

	// Path is the route path (e.g., "/Docs/Install").
	Path string `json:"path"`

	// Content is the file text, unmodified.
	Content string `json:"content"`
}

// Route describes a route entry. Predefined routes are supplied by the caller
// and copied into the route table verbatim.
type Route struct {
	// Path is the route pattern (e.g., "/", "/:..segments").
	Path string `json:"path"`

	// Identifier selects the view for this route.
	Identifier string `json:"identifier"`

	// Params are optional route parameter names.
	Params []string `json:"params,omitempty"`
}

// RouteEntry is one entry of an emitted route table.
type RouteEntry struct {
	Route

	// Generated is true for entries derived from a Page.
	Generated bool `json:"generated"`
}

// Link is a navigation link to another route, by identifier.
type Link struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// View is the view definition emitted for a page.
type View struct {
	// Identifier matches the generated route entry.
	Identifier string `json:"identifier"`

	// Title is rendered as the page heading.
	Title string `json:"title"`

	// Body is the page content.
	Body string `json:"body"`

	// Home links back to the designated home route.
	Home Link `json:"home"`
}

// Artifact is the output of Emit.
type Artifact struct {
	// Package is the Go package name used by RenderGo.
	Package string `json:"package"`

	// Routes lists predefined entries followed by generated entries.
	Routes []RouteEntry `json:"routes"`

	// Views has one definition per page, in discovery order.
	Views []View `json:"views"`
}

// Predefined returns the predefined (non-generated) route entries.
func (a *Artifact) Predefined() []RouteEntry {
	var out []RouteEntry
	for _, r := range a.Routes {
		if !r.Generated {
			out = append(out, r)
		}
	}
	return out
}

// View returns the view with the given identifier.
func (a *Artifact) View(identifier string) (View, bool) {
	for _, v := range a.Views {
		if v.Identifier == identifier {
			return v, true
		}
	}
	return View{}, false
}

// DefaultRoutes are the predefined routes used when the caller supplies none:
// a home page at "/" and a catch-all not-found page.
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/", Identifier: "Home"},
		{Path: "/:..segments", Identifier: "NotFound", Params: []string{"segments"}},
	}
}
