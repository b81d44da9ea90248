package theme

import _ "embed"

//go:embed default.css
var defaultCSS string

// DefaultTheme returns the embedded default theme.
func DefaultTheme() *Theme {
	return &Theme{
		Name:      "default",
		CSS:       defaultCSS,
		IsDefault: true,
	}
}
