package pages

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	a, err := Emit(DefaultRoutes(), scenarioAPages(), EmitOptions{})
	if err != nil {
		t.Fatal(err)
	}
	g := NewRegistry(a)
	g.HandleFunc("Home", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("home"))
	})
	g.HandleFunc("NotFound", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("lost: " + chi.URLParam(r, "*")))
	})
	return g
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRegistryServesGeneratedPages(t *testing.T) {
	h := newTestRegistry(t).Handler()

	rec := get(t, h, "/SubDir1/SubDir1SubDir0/SubDir1SubDir1Page0")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<h1>SubDir1SubDir1Page0</h1>",
		"SubDir1SubDir1Page0Content",
		`<a href="/">Go Home</a>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRegistryPredefinedHandlers(t *testing.T) {
	h := newTestRegistry(t).Handler()

	if rec := get(t, h, "/"); rec.Body.String() != "home" {
		t.Errorf("GET / = %q, want home", rec.Body.String())
	}

	rec := get(t, h, "/no/such/page")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if rec.Body.String() != "lost: no/such/page" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestRegistryEscapesContent(t *testing.T) {
	a, err := Emit(DefaultRoutes(), []Page{{Name: "Xss", Path: "/Xss", Content: "<script>alert(1)</script>"}}, EmitOptions{})
	if err != nil {
		t.Fatal(err)
	}

	body := get(t, NewRegistry(a).Handler(), "/Xss").Body.String()
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Error("page content was not escaped")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Errorf("escaped content missing:\n%s", body)
	}
}

func TestRegistryInject(t *testing.T) {
	g := newTestRegistry(t)
	g.Inject(`<script src="/reload.js"></script>`)

	body := get(t, g.Handler(), "/Page0").Body.String()
	if !strings.Contains(body, `<script src="/reload.js"></script>`) {
		t.Errorf("injected markup missing:\n%s", body)
	}
}

func TestRegistrySkipsUnhandledPredefined(t *testing.T) {
	a, err := Emit([]Route{{Path: "/about", Identifier: "About"}, {Path: "bad", Identifier: "Bad"}}, nil, EmitOptions{})
	if err != nil {
		t.Fatal(err)
	}

	rec := get(t, NewRegistry(a).Handler(), "/about")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for a predefined route without handler", rec.Code)
	}
}

func TestRegistryPathFor(t *testing.T) {
	g := newTestRegistry(t)

	if p, ok := g.PathFor("SubDir0Page1"); !ok || p != "/SubDir0/SubDir0Page1" {
		t.Errorf("PathFor(SubDir0Page1) = %q, %v", p, ok)
	}
	if _, ok := g.PathFor("Missing"); ok {
		t.Error("PathFor(Missing) found")
	}
}

func TestChiPattern(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/", "/"},
		{"/Page0", "/Page0"},
		{"/SubDir0/SubDir0Page0", "/SubDir0/SubDir0Page0"},
		{"/users/:id", "/users/{id}"},
		{"/users/:id/posts/:postId", "/users/{id}/posts/{postId}"},
		{"/:..segments", "/*"},
		{"/docs/:..rest", "/docs/*"},
	}
	for _, tt := range tests {
		if got := ChiPattern(tt.in); got != tt.want {
			t.Errorf("ChiPattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
