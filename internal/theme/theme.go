package theme

import (
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// importRegex matches @import "file.css"; including the url(...) form.
var importRegex = regexp.MustCompile(`@import\s+(?:url\s*\(\s*)?["']([^"']+)["']\s*\)?;?`)

// Theme is a loaded stylesheet.
type Theme struct {
	Name      string
	Path      string // empty for the embedded default
	CSS       string
	ModTime   time.Time
	IsDefault bool
}

// UserThemePath returns the user override stylesheet location.
func UserThemePath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "waveline", "theme.css"), nil
}

// Load returns the user theme when one exists, otherwise the embedded
// default. An empty path uses the default user location.
func Load(path string) (*Theme, error) {
	if path == "" {
		var err error
		path, err = UserThemePath()
		if err != nil {
			return nil, err
		}
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return DefaultTheme(), nil
		}
		return nil, err
	}
	return NewTheme("user", path)
}

// NewTheme loads a stylesheet from disk, inlining its @import statements.
func NewTheme(name, path string) (*Theme, error) {
	css, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &Theme{
		Name:    name,
		Path:    path,
		CSS:     ProcessImports(string(css), filepath.Dir(path), nil),
		ModTime: info.ModTime(),
	}, nil
}

// Reload re-reads the theme file. Returns whether the content changed.
func (t *Theme) Reload() (bool, error) {
	if t.IsDefault {
		return false, nil
	}
	info, err := os.Stat(t.Path)
	if err != nil {
		return false, err
	}
	if !info.ModTime().After(t.ModTime) {
		return false, nil
	}

	css, err := os.ReadFile(t.Path)
	if err != nil {
		return false, err
	}
	t.CSS = ProcessImports(string(css), filepath.Dir(t.Path), nil)
	t.ModTime = info.ModTime()
	return true, nil
}

// ProcessImports resolves and inlines @import statements relative to
// baseDir. The seen map prevents circular imports.
func ProcessImports(css, baseDir string, seen map[string]bool) string {
	if seen == nil {
		seen = make(map[string]bool)
	}

	return importRegex.ReplaceAllStringFunc(css, func(match string) string {
		submatch := importRegex.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}
		importPath := submatch[1]

		fullPath := importPath
		if !filepath.IsAbs(fullPath) {
			fullPath = filepath.Join(baseDir, importPath)
		}
		if seen[fullPath] {
			return "/* circular import prevented: " + importPath + " */"
		}
		seen[fullPath] = true

		imported, err := os.ReadFile(fullPath)
		if err != nil {
			return "/* import failed: " + importPath + " */"
		}
		return ProcessImports(string(imported), filepath.Dir(fullPath), seen)
	})
}
