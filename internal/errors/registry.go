package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Discovery Errors (E001-E019)
	// ============================================

	"E001": {
		Category: CategoryDiscovery,
		Message:  "Invalid page name",
		Detail:   "Page and directory names must match ^[A-Za-z0-9]+$: ASCII letters and digits only, no extensions, spaces, dashes or underscores.",
	},
	"E002": {
		Category: CategoryDiscovery,
		Message:  "Cannot read page file",
		Detail:   "Every file under the pages directory must be readable UTF-8 text.",
	},
	"E003": {
		Category: CategoryDiscovery,
		Message:  "Pages directory not found",
		Detail:   "The pages directory does not exist or is not a directory.",
	},

	// ============================================
	// Emit Errors (E020-E039)
	// ============================================

	"E020": {
		Category: CategoryEmit,
		Message:  "Code generation failed",
		Detail:   "The route table or view definitions could not be rendered.",
	},
	"E021": {
		Category: CategoryEmit,
		Message:  "Invalid output format",
		Detail:   "Supported output formats are \"go\" and \"json\".",
	},
	"E022": {
		Category: CategoryEmit,
		Message:  "Invalid package name",
		Detail:   "The package name of generated Go code must be a valid Go identifier.",
	},

	// ============================================
	// Configuration Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid pagegen.json",
		Detail:   "The configuration file could not be parsed.",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Missing required configuration",
		Detail:   "A required configuration field is missing.",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range or has the wrong form.",
	},
	"E123": {
		Category: CategoryConfig,
		Message:  "Invalid predefined routes",
		Detail:   "Predefined routes must be a JSON array of {\"path\", \"identifier\", \"params\"} objects.",
	},

	// ============================================
	// CLI Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryCLI,
		Message:  "Command failed",
		Detail:   "",
	},
	"E141": {
		Category: CategoryCLI,
		Message:  "Config file not found",
		Detail:   "No pagegen.json was found in this directory or any parent.",
	},
	"E142": {
		Category: CategoryCLI,
		Message:  "Cannot write output",
		Detail:   "The generated file could not be written.",
	},
	"E143": {
		Category: CategoryCLI,
		Message:  "Preview server failed",
		Detail:   "The preview server could not be started.",
	},
	"E144": {
		Category: CategoryCLI,
		Message:  "Invalid flag",
		Detail:   "A command line flag has an unsupported value.",
	},

	// ============================================
	// Publish Errors (E160-E179)
	// ============================================

	"E160": {
		Category: CategoryPublish,
		Message:  "Publish failed",
		Detail:   "The generated artifact could not be uploaded to S3.",
	},
	"E161": {
		Category: CategoryPublish,
		Message:  "Metrics export failed",
		Detail:   "The metrics textfile could not be written.",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
