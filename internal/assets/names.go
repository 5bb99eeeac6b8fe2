package assets

// Built-in asset names.
const (
	// DefaultStyleName is the stylesheet applied when no style is configured.
	DefaultStyleName = "default"

	// CoordinatorScriptName is the in-page chart render coordinator template.
	CoordinatorScriptName = "coordinator"

	// MathConfigScriptName configures the math runtime before it loads.
	MathConfigScriptName = "mathjax-config"
)
