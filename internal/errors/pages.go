package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/vango-dev/pagegen/pkg/pages"
)

// FromPages converts a discovery error from package pages into a coded
// Error. It returns nil if err is not a *pages.Error.
func FromPages(err error) *Error {
	var pe *pages.Error
	if !stderrors.As(err, &pe) {
		return nil
	}

	switch pe.Kind {
	case pages.KindInvalidName:
		e := New("E001").WithFile(pe.Path).Wrap(err).
			WithSuggestion(fmt.Sprintf("Rename %q using only ASCII letters and digits (e.g. %q)", pe.Name, suggestName(pe.Name)))
		e.Message = fmt.Sprintf("%s %q", e.Message, pe.Name)
		return e

	case pages.KindCantReadFile:
		e := New("E002").WithFile(pe.Path).Wrap(err).
			WithSuggestion("Check the file permissions and that the file is UTF-8 text")
		e.Message = fmt.Sprintf("%s %s", e.Message, pe.Path)
		if pe.Err != nil {
			e.Detail = pe.Err.Error()
		}
		return e
	}

	return New("E140").Wrap(err)
}

// suggestName strips every character ValidName rejects and capitalizes the
// letter following each removed run: "sub_dir_0" becomes "subDir0".
func suggestName(name string) string {
	out := make([]byte, 0, len(name))
	upper := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		alnum := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
		if !alnum {
			upper = len(out) > 0
			continue
		}
		if upper && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = false
		out = append(out, c)
	}
	if len(out) == 0 {
		return "Page"
	}
	return string(out)
}
