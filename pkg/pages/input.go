package pages

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoDirectory is returned by ParseInput when the pages directory is empty.
var ErrNoDirectory = errors.New("pages directory is required")

// Input holds the two generator inputs.
type Input struct {
	// Dir is the root of the content tree.
	Dir string

	// Routes are the predefined routes, in the order they are emitted.
	Routes []Route
}

// ParseInput builds an Input from a directory path and a JSON array of route
// descriptors. An empty routes block means no predefined routes. Descriptors
// are passed through as given.
func ParseInput(dir string, routes []byte) (*Input, error) {
	if dir == "" {
		return nil, ErrNoDirectory
	}

	input := &Input{Dir: dir}

	routes = bytes.TrimSpace(routes)
	if len(routes) == 0 {
		return input, nil
	}

	if err := json.Unmarshal(routes, &input.Routes); err != nil {
		return nil, fmt.Errorf("parsing predefined routes: %w", err)
	}

	return input, nil
}
