// Package pages discovers content pages in a directory tree and emits the
// route table and view definitions for them.
//
// The package provides:
//   - Name validation for page and directory basenames
//   - A depth-first, sorted directory walk over any fs.FS
//   - Route path derivation from the filesystem layout
//   - Deterministic emission of a route table merged after predefined routes
//   - Go source and JSON serializers for the emitted artifact
//   - A runtime Registry that mounts the same artifact on a chi router
//
// # Directory Convention
//
// Every regular file under the pages directory is a page. Its basename becomes
// the page identifier and its text becomes the page body:
//
//	pages/
//	├── About              → /About
//	└── Docs/
//	    ├── Install        → /Docs/Install
//	    └── Guides/
//	        └── Routing    → /Docs/Guides/Routing
//
// File and directory basenames must match ^[A-Za-z0-9]+$. The first invalid
// name in traversal order aborts discovery; nothing is emitted.
//
// # Usage
//
//	input, err := pages.ParseInput("pages", []byte(`[{"path":"/","identifier":"Home"}]`))
//	if err != nil {
//	    return err
//	}
//
//	found, err := pages.NewScanner(input.Dir).Scan()
//	if err != nil {
//	    return err // *pages.Error naming the offending name or path
//	}
//
//	artifact, err := pages.Emit(input.Routes, found, pages.EmitOptions{Package: "site"})
//	if err != nil {
//	    return err
//	}
//
//	code, err := pages.RenderGo(artifact)
package pages
