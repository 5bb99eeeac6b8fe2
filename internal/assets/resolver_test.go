package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writeAsset(t *testing.T, base, dir, file, content string) {
	t.Helper()
	full := filepath.Join(base, dir)
	if err := os.MkdirAll(full, 0o750); err != nil {
		t.Fatalf("creating %s: %v", dir, err)
	}
	if err := os.WriteFile(filepath.Join(full, file), []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", file, err)
	}
}

// ---------------------------------------------------------------------------
// TestNewAssetResolver - Construction
// ---------------------------------------------------------------------------

func TestNewAssetResolver(t *testing.T) {
	t.Parallel()

	t.Run("empty path uses embedded only", func(t *testing.T) {
		t.Parallel()

		resolver, err := NewAssetResolver("")
		if err != nil {
			t.Fatalf("NewAssetResolver(\"\") error = %v", err)
		}
		if resolver.HasCustomLoader() {
			t.Error("expected no custom loader for empty path")
		}
	})

	t.Run("valid custom path", func(t *testing.T) {
		t.Parallel()

		resolver, err := NewAssetResolver(t.TempDir())
		if err != nil {
			t.Fatalf("NewAssetResolver() error = %v", err)
		}
		if !resolver.HasCustomLoader() {
			t.Error("expected custom loader for valid path")
		}
	})

	t.Run("invalid custom path returns error", func(t *testing.T) {
		t.Parallel()

		_, err := NewAssetResolver("/nonexistent/path/abc123xyz")
		if !errors.Is(err, ErrInvalidBasePath) {
			t.Errorf("NewAssetResolver() error = %v, want ErrInvalidBasePath", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestAssetResolver - Custom-first fallback
// ---------------------------------------------------------------------------

func TestAssetResolver_Fallback(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeAsset(t, tmpDir, "styles", "mystyle.css", "/* custom */")
	writeAsset(t, tmpDir, "styles", "compact.css", "/* override */")
	writeAsset(t, tmpDir, "scripts", "coordinator.js", "// custom coordinator")

	resolver, err := NewAssetResolver(tmpDir)
	if err != nil {
		t.Fatalf("NewAssetResolver() error = %v", err)
	}

	tests := []struct {
		name    string
		load    func() (string, error)
		want    string
		wantErr error
	}{
		{
			name: "custom-only style",
			load: func() (string, error) { return resolver.LoadStyle("mystyle") },
			want: "/* custom */",
		},
		{
			name: "custom overrides embedded style",
			load: func() (string, error) { return resolver.LoadStyle("compact") },
			want: "/* override */",
		},
		{
			name: "custom overrides embedded script",
			load: func() (string, error) { return resolver.LoadScript(CoordinatorScriptName) },
			want: "// custom coordinator",
		},
		{
			name:    "missing everywhere",
			load:    func() (string, error) { return resolver.LoadStyle("nonexistent-xyz") },
			wantErr: ErrStyleNotFound,
		},
		{
			name:    "validation error is not fallen back",
			load:    func() (string, error) { return resolver.LoadScript("../secret") },
			wantErr: ErrInvalidAssetName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.load()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("falls back to embedded", func(t *testing.T) {
		t.Parallel()

		for _, load := range []func() (string, error){
			func() (string, error) { return resolver.LoadStyle(DefaultStyleName) },
			func() (string, error) { return resolver.LoadScript(MathConfigScriptName) },
		} {
			got, err := load()
			if err != nil {
				t.Fatalf("fallback error: %v", err)
			}
			if got == "" {
				t.Error("fallback returned empty content")
			}
		}
	})
}

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"ErrStyleNotFound", ErrStyleNotFound, true},
		{"ErrScriptNotFound", ErrScriptNotFound, true},
		{"wrapped ErrScriptNotFound", fmt.Errorf("%w: %q", ErrScriptNotFound, "x"), true},
		{"ErrInvalidAssetName", ErrInvalidAssetName, false},
		{"ErrAssetRead", ErrAssetRead, false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := isNotFoundError(tt.err); got != tt.want {
				t.Errorf("isNotFoundError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
