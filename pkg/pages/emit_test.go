package pages

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEmitMergeOrder(t *testing.T) {
	predefined := DefaultRoutes()
	found := scenarioAPages()

	a, err := Emit(predefined, found, EmitOptions{})
	if err != nil {
		t.Fatalf("Emit() error: %v", err)
	}

	if len(a.Routes) != len(predefined)+len(found) {
		t.Fatalf("len(Routes) = %d, want %d", len(a.Routes), len(predefined)+len(found))
	}

	for i, want := range predefined {
		got := a.Routes[i]
		if got.Generated {
			t.Errorf("Routes[%d] marked generated", i)
		}
		if diff := cmp.Diff(want, got.Route); diff != "" {
			t.Errorf("Routes[%d] mismatch (-want +got):\n%s", i, diff)
		}
	}

	for i, page := range found {
		got := a.Routes[len(predefined)+i]
		want := RouteEntry{Route: Route{Path: page.Path, Identifier: page.Name}, Generated: true}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("generated route %d mismatch (-want +got):\n%s", i, diff)
		}
	}

	if diff := cmp.Diff(predefined, routesOf(a.Predefined())); diff != "" {
		t.Errorf("Predefined() mismatch (-want +got):\n%s", diff)
	}
}

func routesOf(entries []RouteEntry) []Route {
	var out []Route
	for _, e := range entries {
		out = append(out, e.Route)
	}
	return out
}

func TestEmitViews(t *testing.T) {
	a, err := Emit(nil, scenarioAPages(), EmitOptions{Home: "Index", HomeText: "Back"})
	if err != nil {
		t.Fatalf("Emit() error: %v", err)
	}

	if len(a.Views) != 5 {
		t.Fatalf("len(Views) = %d, want 5", len(a.Views))
	}

	want := View{
		Identifier: "SubDir0Page1",
		Title:      "SubDir0Page1",
		Body:       "SubDir0Page1Content",
		Home:       Link{To: "Index", Text: "Back"},
	}
	if diff := cmp.Diff(want, a.Views[2]); diff != "" {
		t.Errorf("Views[2] mismatch (-want +got):\n%s", diff)
	}

	v, ok := a.View("SubDir1SubDir1Page0")
	if !ok || v.Body != "SubDir1SubDir1Page0Content" {
		t.Errorf("View(SubDir1SubDir1Page0) = %+v, %v", v, ok)
	}
	if _, ok := a.View("Missing"); ok {
		t.Error("View(Missing) found")
	}
}

func TestEmitDefaults(t *testing.T) {
	a, err := Emit(nil, []Page{{Name: "Page0", Path: "/Page0", Content: "x"}}, EmitOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if a.Package != DefaultPackage {
		t.Errorf("Package = %q, want %q", a.Package, DefaultPackage)
	}
	if a.Views[0].Home != (Link{To: DefaultHome, Text: DefaultHomeText}) {
		t.Errorf("Home = %+v", a.Views[0].Home)
	}
}

func TestEmitDeterministic(t *testing.T) {
	first, err := Emit(DefaultRoutes(), scenarioAPages(), EmitOptions{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := Emit(DefaultRoutes(), scenarioAPages(), EmitOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Emit() not deterministic (-first +second):\n%s", diff)
	}
}

func TestEmitDoesNotAliasPredefinedParams(t *testing.T) {
	predefined := DefaultRoutes()
	a, err := Emit(predefined, nil, EmitOptions{})
	if err != nil {
		t.Fatal(err)
	}
	predefined[1].Params[0] = "changed"
	if a.Routes[1].Params[0] != "segments" {
		t.Error("Emit() shares Params with the caller's slice")
	}
}

func TestEmitRejectsInvalidPageName(t *testing.T) {
	_, err := Emit(nil, []Page{{Name: "bad_name", Path: "/bad_name"}}, EmitOptions{})
	if !errors.Is(err, ErrInvalidName) {
		t.Fatalf("Emit() error = %v, want ErrInvalidName", err)
	}
}
