package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"
	"github.com/vango-dev/pagegen/internal/build"
	"github.com/vango-dev/pagegen/pkg/pages"
)

func checkCmd() *cobra.Command {
	var (
		flags   genFlags
		asJSON  bool
		showAll bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the pages directory without generating",
		Long: `Walk the pages directory, validate every name and list the pages found.

Exits non-zero on the first invalid name or unreadable file, so it can
run in CI before generation.

Examples:
  pagegen check
  pagegen check --dir content
  pagegen check --routes @routes.json --all
  pagegen check --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), flags, asJSON, showAll)
		},
	}

	addInputFlags(cmd, &flags)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&showAll, "all", false, "List predefined routes too")

	return cmd
}

// checkEntry is one line of check output.
type checkEntry struct {
	Path       string `json:"path"`
	Identifier string `json:"identifier"`
	Generated  bool   `json:"generated"`
	Bytes      int    `json:"bytes,omitempty"`
}

func runCheck(ctx context.Context, flags genFlags, asJSON, showAll bool) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(ctx)
	defer stop()

	builder := build.New(cfg, build.Options{})
	a, found, err := builder.Generate(ctx)
	if err != nil {
		return err
	}

	entries := checkEntries(a, found, showAll)

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	for _, e := range entries {
		if e.Generated {
			info("%-40s %s", e.Path, e.Identifier)
		} else {
			info("%-40s %s (predefined)", e.Path, e.Identifier)
		}
	}
	success("%d pages in %s", len(found), relPath(builder.Input().Dir))
	return nil
}

// checkEntries lists the generated routes, and the predefined ones if all
// is set, in route table order.
func checkEntries(a *pages.Artifact, found []pages.Page, all bool) []checkEntry {
	sizes := make(map[string]int, len(found))
	for _, p := range found {
		sizes[p.Path] = len(p.Content)
	}

	entries := make([]checkEntry, 0, len(a.Routes))
	for _, r := range a.Routes {
		if !r.Generated && !all {
			continue
		}
		e := checkEntry{Path: r.Path, Identifier: r.Identifier, Generated: r.Generated}
		if r.Generated {
			e.Bytes = sizes[r.Path]
		}
		entries = append(entries, e)
	}
	return entries
}
