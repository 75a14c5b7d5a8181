package pages

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"unicode/utf8"
)

var errInvalidUTF8 = errors.New("content is not valid UTF-8")

// Scanner discovers pages under a root directory.
type Scanner struct {
	fsys fs.FS
	root string
}

// NewScanner creates a scanner for a directory on disk.
func NewScanner(dir string) *Scanner {
	return &Scanner{fsys: os.DirFS(dir), root: dir}
}

// NewFSScanner creates a scanner over fsys. The root is only used to build
// the paths reported in entries and errors; it defaults to ".".
func NewFSScanner(fsys fs.FS, root string) *Scanner {
	if root == "" {
		root = "."
	}
	return &Scanner{fsys: fsys, root: root}
}

// Root returns the root directory the scanner reports paths against.
func (s *Scanner) Root() string {
	return s.root
}

// Entry is a file or directory visited by Walk.
type Entry struct {
	// Name is the basename.
	Name string

	// Path is the OS path (root joined with the relative path).
	Path string

	// Rel is the slash-separated path relative to the root, as used by the fs.FS.
	Rel string

	// IsDir is true for directories.
	IsDir bool
}

// WalkFunc is called for every entry visited by Walk. Returning an error
// stops the walk and Walk returns that error.
type WalkFunc func(e Entry) error

// Walk visits every entry below the root, depth-first, with siblings in
// basename order. The root itself is not visited. Each basename is checked
// with ValidName before the entry is handed to fn; the first invalid name
// stops the walk with an *Error of KindInvalidName.
//
// Entries that are neither directories, regular files, nor symlinks
// (pipes, sockets, devices) are skipped. Symlinks are not followed as
// directories: a symlink is handed to fn as a page, so one pointing at a
// directory makes Scan fail with KindCantReadFile.
func (s *Scanner) Walk(fn WalkFunc) error {
	return s.walk(".", fn)
}

func (s *Scanner) walk(dir string, fn WalkFunc) error {
	entries, err := fs.ReadDir(s.fsys, dir)
	if err != nil {
		return cantReadFile(s.osPath(dir), err)
	}

	// fs.ReadDir sorts, but not every fs.FS goes through it.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, d := range entries {
		name := d.Name()
		rel := path.Join(dir, name)

		if !ValidName(name) {
			return invalidName(name, s.osPath(rel))
		}

		if d.IsDir() {
			if err := fn(Entry{Name: name, Path: s.osPath(rel), Rel: rel, IsDir: true}); err != nil {
				return err
			}
			if err := s.walk(rel, fn); err != nil {
				return err
			}
			continue
		}

		if !isPageType(d.Type()) {
			continue
		}

		if err := fn(Entry{Name: name, Path: s.osPath(rel), Rel: rel}); err != nil {
			return err
		}
	}

	return nil
}

// Scan walks the tree and reads every page. It returns either every page
// in discovery order or an error; never a partial list.
func (s *Scanner) Scan() ([]Page, error) {
	var found []Page

	err := s.Walk(func(e Entry) error {
		if e.IsDir {
			return nil
		}

		page, err := s.readPage(e)
		if err != nil {
			return err
		}
		found = append(found, page)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return found, nil
}

// readPage builds the Page for a file entry.
func (s *Scanner) readPage(e Entry) (Page, error) {
	data, err := fs.ReadFile(s.fsys, e.Rel)
	if err != nil {
		return Page{}, cantReadFile(e.Path, err)
	}
	if !utf8.Valid(data) {
		return Page{}, cantReadFile(e.Path, errInvalidUTF8)
	}

	routePath, err := DerivePath(s.root, e.Path)
	if err != nil {
		return Page{}, err
	}

	return Page{
		Name:    e.Name,
		Path:    routePath,
		Content: string(data),
	}, nil
}

func (s *Scanner) osPath(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

func isPageType(mode fs.FileMode) bool {
	return mode.IsRegular() || mode&fs.ModeSymlink != 0
}
