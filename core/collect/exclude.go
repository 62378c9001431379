package collect

import "strings"

// DefaultExcludedDirs are directory names whose subtrees are never packaged.
var DefaultExcludedDirs = []string{".git", "node_modules"}

// Excludes is a set of directory names skipped at any depth.
type Excludes map[string]struct{}

// NewExcludes returns DefaultExcludedDirs plus extra names.
func NewExcludes(extra ...string) Excludes {
	ex := make(Excludes, len(DefaultExcludedDirs)+len(extra))
	for _, name := range DefaultExcludedDirs {
		ex[name] = struct{}{}
	}
	for _, name := range extra {
		if name = strings.TrimSpace(name); name != "" {
			ex[name] = struct{}{}
		}
	}
	return ex
}

// Dir reports whether a directory with this exact name is excluded.
func (e Excludes) Dir(name string) bool {
	if e == nil {
		return name == ".git" || name == "node_modules"
	}
	_, ok := e[name]
	return ok
}

// Path reports whether any directory component of a slash-separated
// relative file path is excluded. The final component is the file name and
// is not checked.
func (e Excludes) Path(rel string) bool {
	parts := strings.Split(rel, "/")
	for _, dir := range parts[:len(parts)-1] {
		if e.Dir(dir) {
			return true
		}
	}
	return false
}
