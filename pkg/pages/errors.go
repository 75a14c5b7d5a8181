package pages

import (
	"errors"
	"fmt"
)

// Kind identifies the class of a generation failure.
type Kind int

const (
	// KindInvalidName means a file or directory basename failed ValidName.
	KindInvalidName Kind = iota + 1

	// KindCantReadFile means a page file (or directory) could not be read as text.
	KindCantReadFile
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInvalidName:
		return "InvalidName"
	case KindCantReadFile:
		return "CantReadFile"
	default:
		return "Unknown"
	}
}

// Sentinels for errors.Is.
var (
	ErrInvalidName  = errors.New("invalid page name")
	ErrCantReadFile = errors.New("cannot read page file")
)

// Error is returned when discovery aborts.
type Error struct {
	Kind Kind

	// Name is the offending basename (KindInvalidName).
	Name string

	// Path is the offending file path (KindCantReadFile), or the
	// path of the entry carrying an invalid name.
	Path string

	// Err is the underlying I/O error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidName:
		return fmt.Sprintf("%s: %q must match ^[A-Za-z0-9]+$", ErrInvalidName, e.Name)
	case KindCantReadFile:
		if e.Err != nil {
			return fmt.Sprintf("%s %s: %v", ErrCantReadFile, e.Path, e.Err)
		}
		return fmt.Sprintf("%s %s", ErrCantReadFile, e.Path)
	default:
		return "page discovery failed"
	}
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel matching e.Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidName:
		return e.Kind == KindInvalidName
	case ErrCantReadFile:
		return e.Kind == KindCantReadFile
	}
	return false
}

func invalidName(name, path string) *Error {
	return &Error{Kind: KindInvalidName, Name: name, Path: path}
}

func cantReadFile(path string, err error) *Error {
	return &Error{Kind: KindCantReadFile, Path: path, Err: err}
}
