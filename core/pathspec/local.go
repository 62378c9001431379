package pathspec

import (
	"regexp"
	"strings"

	"github.com/cordum/pathpack/core/hookerr"
)

// TokenResolver returns the replacement for an @key@ token.
type TokenResolver interface {
	Resolve(key string) (string, bool)
}

// MapResolver resolves tokens from a fixed map.
type MapResolver map[string]string

func (m MapResolver) Resolve(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// LocalPathSpec is a parsed local descriptor.
type LocalPathSpec struct {
	BasePath string
	Wildcard Wildcard
}

var tokenPattern = regexp.MustCompile(`@([A-Za-z0-9_.\-]+)@`)

// ParseLocal trims raw, substitutes known tokens, and splits off a trailing
// wildcard segment. Unknown tokens are left untouched. A blank descriptor
// fails with PathNotExists.
func ParseLocal(raw string, resolver TokenResolver) (LocalPathSpec, error) {
	path := SubstituteTokens(strings.TrimSpace(raw), resolver)
	if strings.TrimSpace(path) == "" {
		return LocalPathSpec{}, hookerr.New(hookerr.KindPathNotExists, hookerr.Params{"path": raw}, nil)
	}

	idx := strings.LastIndexAny(path, `/\`)
	segment := path[idx+1:]
	wc, ok, err := parseWildcard(segment)
	if err != nil {
		return LocalPathSpec{}, err
	}
	if !ok {
		return LocalPathSpec{BasePath: path}, nil
	}
	base := path[:idx+1]
	if len(base) > 1 {
		base = strings.TrimRight(base, `/\`)
		if base == "" {
			base = path[:1]
		}
	}
	if base == "" {
		base = "."
	}
	return LocalPathSpec{BasePath: base, Wildcard: wc}, nil
}

// SubstituteTokens replaces every @key@ token the resolver knows.
func SubstituteTokens(path string, resolver TokenResolver) string {
	if resolver == nil || !strings.Contains(path, "@") {
		return path
	}
	return tokenPattern.ReplaceAllStringFunc(path, func(tok string) string {
		key := tok[1 : len(tok)-1]
		if v, ok := resolver.Resolve(key); ok {
			return v
		}
		return tok
	})
}
