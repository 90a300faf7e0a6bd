package theme

import (
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// importRegex matches @import "file.css"; or @import 'file.css'; or @import url("file.css");
var importRegex = regexp.MustCompile(`@import\s+(?:url\s*\(\s*)?["']([^"']+)["']\s*\)?;?`)

// Stylesheet is a user CSS file with its imports inlined.
type Stylesheet struct {
	Path    string
	CSS     string
	ModTime time.Time
}

// Load reads the stylesheet at path. A missing file yields an empty
// stylesheet that Reload picks up once the file appears.
func Load(path string) (*Stylesheet, error) {
	s := &Stylesheet{Path: path}
	if _, err := s.Reload(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return s, nil
}

// Reload rereads the file if its modification time moved.
// Returns true if the content changed. A removed file clears the CSS.
func (s *Stylesheet) Reload() (bool, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		if os.IsNotExist(err) && s.CSS != "" {
			s.CSS, s.ModTime = "", time.Time{}
			return true, nil
		}
		return false, err
	}

	if !info.ModTime().After(s.ModTime) {
		return false, nil
	}

	css, err := os.ReadFile(s.Path)
	if err != nil {
		return false, err
	}

	processed := ProcessImports(string(css), filepath.Dir(s.Path), nil)
	old := s.CSS
	s.CSS = processed
	s.ModTime = info.ModTime()

	return old != s.CSS, nil
}

// ProcessImports resolves and inlines @import statements in CSS.
// Imports are resolved relative to baseDir; seen breaks import cycles.
func ProcessImports(css string, baseDir string, seen map[string]bool) string {
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
		if !filepath.IsAbs(importPath) {
			fullPath = filepath.Join(baseDir, importPath)
		}

		if seen[fullPath] {
			return "/* circular import prevented: " + importPath + " */"
		}
		seen[fullPath] = true

		imported, err := os.ReadFile(fullPath)
		if err != nil {
			return "/* import failed: " + importPath + " - " + err.Error() + " */"
		}

		return "/* imported: " + importPath + " */\n" +
			ProcessImports(string(imported), filepath.Dir(fullPath), seen)
	})
}
