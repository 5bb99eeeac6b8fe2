package assets

// defaultLoader is the package-level embedded loader.
var defaultLoader = NewEmbeddedLoader()

// LoadStyle loads a built-in CSS style by name.
// Returns ErrStyleNotFound if the style does not exist.
// Returns ErrInvalidAssetName if the name contains path separators or traversal.
func LoadStyle(name string) (string, error) {
	return defaultLoader.LoadStyle(name)
}

// LoadScript loads a built-in script by name.
// Returns ErrScriptNotFound if the script does not exist.
func LoadScript(name string) (string, error) {
	return defaultLoader.LoadScript(name)
}

// Styles lists the built-in style names in lexical order.
func Styles() []string {
	return defaultLoader.Styles()
}
