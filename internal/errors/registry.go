package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	DocURL   string
}

// Codes for fatal bootstrap and configuration failures.
const (
	CodeNoModules        = "N001"
	CodeNoLayouts        = "N002"
	CodeUnknownLayout    = "N003"
	CodeInvalidPattern   = "N004"
	CodeConfigNotFound   = "N010"
	CodeConfigInvalid    = "N011"
	CodeManifestInvalid  = "N012"
	CodeTemplateNotFound = "N013"
)

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Bootstrap Errors (N001-N009)
	// ============================================

	CodeNoModules: {
		Category: CategoryBootstrap,
		Message:  "No page modules were registered",
		DocURL:   "https://nitro.dev/docs/errors/N001",
	},
	CodeNoLayouts: {
		Category: CategoryBootstrap,
		Message:  "No layouts were supplied",
		DocURL:   "https://nitro.dev/docs/errors/N002",
	},
	CodeUnknownLayout: {
		Category: CategoryBootstrap,
		Message:  "Route references an unregistered layout",
		DocURL:   "https://nitro.dev/docs/errors/N003",
	},
	CodeInvalidPattern: {
		Category: CategoryRouting,
		Message:  "Invalid route pattern",
		DocURL:   "https://nitro.dev/docs/errors/N004",
	},

	// ============================================
	// Config Errors (N010-N019)
	// ============================================

	CodeConfigNotFound: {
		Category: CategoryConfig,
		Message:  "Config file not found",
		DocURL:   "https://nitro.dev/docs/errors/N010",
	},
	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		DocURL:   "https://nitro.dev/docs/errors/N011",
	},
	CodeManifestInvalid: {
		Category: CategoryManifest,
		Message:  "Invalid route manifest",
		DocURL:   "https://nitro.dev/docs/errors/N012",
	},
	CodeTemplateNotFound: {
		Category: CategoryManifest,
		Message:  "Template file not found",
		DocURL:   "https://nitro.dev/docs/errors/N013",
	},
}

// Lookup returns the template for a code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
