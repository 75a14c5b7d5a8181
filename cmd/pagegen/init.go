package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vango-dev/pagegen/internal/config"
	"github.com/vango-dev/pagegen/internal/errors"
)

// samplePage is the page written by init into an empty pages directory.
const samplePage = "Welcome"

func initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create pagegen.json and a pages directory",
		Long: `Write a default pagegen.json and create the pages directory with a
sample page.

Examples:
  pagegen init
  pagegen init site
  pagegen init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(dir, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing pagegen.json")

	return cmd
}

func runInit(dir string, force bool) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	if config.Exists(abs) && !force {
		return errors.New("E140").
			WithFile(filepath.Join(abs, config.ConfigFileName)).
			WithDetail(config.ConfigFileName + " already exists").
			WithSuggestion("Use --force to overwrite it")
	}

	cfg := config.NewAt(abs)
	path := filepath.Join(abs, config.ConfigFileName)
	if err := os.MkdirAll(abs, 0755); err != nil {
		return errors.New("E142").WithFile(abs).Wrap(err)
	}
	if err := cfg.SaveTo(path); err != nil {
		return err
	}
	success("Created %s", relPath(path))

	pagesDir := cfg.PagesPath()
	if err := os.MkdirAll(pagesDir, 0755); err != nil {
		return errors.New("E142").WithFile(pagesDir).Wrap(err)
	}

	entries, err := os.ReadDir(pagesDir)
	if err != nil {
		return errors.New("E142").WithFile(pagesDir).Wrap(err)
	}
	if len(entries) == 0 {
		page := filepath.Join(pagesDir, samplePage)
		if err := os.WriteFile(page, []byte("Welcome to your site."), 0644); err != nil {
			return errors.New("E142").WithFile(page).Wrap(err)
		}
		success("Created %s", relPath(page))
	}

	info("Run 'pagegen gen' to generate %s", cfg.Output)
	return nil
}
