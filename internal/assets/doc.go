// Package assets provides the print stylesheets and in-page scripts used to
// turn a notebook into a PDF. Assets can be loaded from embedded files or a
// custom filesystem path.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in assets)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// AssetResolver is the loader used by the converter. It tries the custom
// FilesystemLoader first and falls back to EmbeddedLoader when the asset is
// not found, so a user can override one stylesheet and keep the rest.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css           # print stylesheet (e.g., compact.css)
//	└── scripts/
//	    └── {name}.js            # in-page script (e.g., coordinator.js)
//
// Scripts may be text/template sources; see the coordinator package.
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
