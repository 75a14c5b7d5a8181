// Package dev provides the preview server and hot reload functionality.
//
// This package implements:
//   - Polling of the pages directory for changes
//   - Regeneration of the artifact on change
//   - Serving the artifact through pages.Registry on a chi router
//   - WebSocket-based browser refresh and an error overlay
//
// # Architecture
//
// The preview server consists of several components:
//
//   - Watcher: Polls the pages directory for created, modified and removed files
//   - Server: Regenerates the artifact and serves it
//   - ReloadServer: Notifies browsers of changes via WebSocket
//
// The predefined home route renders an index of every page, and the
// catch-all route renders a not-found view. A regeneration that fails keeps
// the previous artifact in service.
//
// # Usage
//
//	srv := dev.NewServer(dev.ServerOptions{
//	    Config: cfg,
//	    Logger: slog.Default(),
//	})
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Configuration
//
// Hot reload can be disabled via pagegen.json (preview.hotReload=false).
// Patterns in preview.ignore are added to DefaultIgnore.
//
// # Hot Reload Protocol
//
// The browser connects to /_pagegen/reload via WebSocket.
// Messages are JSON-encoded:
//
//	{"type": "reload", "pages": 5}    // Triggers full page reload
//	{"type": "error", "error": "..."} // Shows error overlay
//	{"type": "clear"}                 // Clears error overlay
//
// A browser that connects while generation is failing receives the error
// message immediately.
package dev
