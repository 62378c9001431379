// Package pathspec parses path descriptors in the local and GitHub dialects.
//
// Local descriptors name a file or directory on disk, optionally containing
// @key@ tokens and a trailing wildcard segment (`*` or `*.ext`):
//
//	@source.path@/modules/com.example/src/*.java
//
// GitHub descriptors name a branch subtree of a repository:
//
//	/owner/repo/tree/branch/sub/path/*.md
package pathspec

import (
	"regexp"
	"strings"

	"github.com/cordum/pathpack/core/hookerr"
)

// WildcardKind selects how the leaf names under a base path are filtered.
type WildcardKind int

const (
	// KindNone means the base path itself is the target.
	KindNone WildcardKind = iota
	// KindAnyFile matches every file directly under the base path.
	KindAnyFile
	// KindExtension matches files directly under the base path by suffix.
	KindExtension
)

func (k WildcardKind) String() string {
	switch k {
	case KindAnyFile:
		return "any"
	case KindExtension:
		return "extension"
	default:
		return "none"
	}
}

// Wildcard is the trailing pattern of a descriptor.
type Wildcard struct {
	Kind WildcardKind
	Ext  string
}

// IsSet reports whether the descriptor carried a wildcard segment.
func (w Wildcard) IsSet() bool { return w.Kind != KindNone }

// Match reports whether a leaf file name passes the wildcard. Extension
// matching is case-insensitive.
func (w Wildcard) Match(name string) bool {
	if w.Kind != KindExtension {
		return true
	}
	return strings.HasSuffix(strings.ToLower(name), "."+strings.ToLower(w.Ext))
}

func (w Wildcard) String() string {
	switch w.Kind {
	case KindAnyFile:
		return "*"
	case KindExtension:
		return "*." + w.Ext
	default:
		return ""
	}
}

var extPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// parseWildcard classifies a trailing segment. ok is false when the segment
// is a plain name; err is set when it looks like a pattern but is malformed.
func parseWildcard(segment string) (w Wildcard, ok bool, err error) {
	if segment == "*" {
		return Wildcard{Kind: KindAnyFile}, true, nil
	}
	if !strings.ContainsAny(segment, "*?") {
		return Wildcard{}, false, nil
	}
	ext, found := strings.CutPrefix(segment, "*.")
	if !found || !extPattern.MatchString(ext) || strings.HasSuffix(ext, ".") {
		return Wildcard{}, false, hookerr.New(hookerr.KindInvalidSubpathPattern, hookerr.Params{"pattern": segment}, nil)
	}
	return Wildcard{Kind: KindExtension, Ext: ext}, true, nil
}
