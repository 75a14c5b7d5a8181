// Package errors provides structured, actionable error messages for pagegen.
//
// Every error carries a code, a category, a short message, and optionally the
// file it concerns, a longer explanation, and a hint on how to fix it.
//
// # Error Categories
//
//   - discovery: Walking the pages directory (invalid names, unreadable files)
//   - emit: Rendering the route table and views
//   - config: Loading or validating pagegen.json
//   - cli: Command line usage and output files
//   - publish: Uploading generated artifacts
//
// # Usage
//
//	err := errors.New("E001").
//	    WithFile("pages/sub_dir_0").
//	    WithSuggestion("Rename it using only letters and digits")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E001: Invalid page name
//	//
//	//   pages/sub_dir_0
//	//
//	//   Page and directory names must match ^[A-Za-z0-9]+$ ...
//	//
//	//   Hint: Rename it using only letters and digits
//
// Errors from package pages are converted with FromPages.
package errors
