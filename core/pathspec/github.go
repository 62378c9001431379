package pathspec

import (
	"net/url"
	"strings"

	"github.com/cordum/pathpack/core/hookerr"
)

const treeMarker = "tree"

// DefaultBranchNamespaces are branch prefixes that take two path segments.
var DefaultBranchNamespaces = []string{"feature", "release", "hotfix", "bugfix"}

// GitHubOptions tunes the branch/subpath split.
type GitHubOptions struct {
	// BranchNamespaces lists first branch segments that are always followed
	// by a second branch segment (feature/x, release/1.2).
	BranchNamespaces []string
}

// GitHubPathSpec is a parsed GitHub descriptor.
type GitHubPathSpec struct {
	Owner    string
	Repo     string
	Branch   string
	Subpath  string
	Wildcard Wildcard
}

// RepoPath returns owner/repo.
func (s GitHubPathSpec) RepoPath() string {
	return s.Owner + "/" + s.Repo
}

// ParseGitHub parses /owner/repo/tree/branch[/subpath][/pattern].
//
// The trailing pattern is split off first. The branch is the first segment
// after the tree marker, extended by one segment when it is a configured
// namespace, and a %2F inside a segment encodes a slash in the branch name.
// What remains is the subpath.
func ParseGitHub(raw string, opts GitHubOptions) (GitHubPathSpec, error) {
	path := strings.TrimSpace(raw)
	if path == "" {
		return GitHubPathSpec{}, hookerr.New(hookerr.KindNoGitHubPathFound, nil, nil)
	}
	invalid := hookerr.New(hookerr.KindInvalidPathFileFormat, hookerr.Params{"path": path}, nil)
	if !strings.HasPrefix(path, "/") {
		return GitHubPathSpec{}, invalid
	}
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(segments) < 3 || segments[0] == "" || segments[1] == "" || segments[2] != treeMarker {
		return GitHubPathSpec{}, invalid
	}
	spec := GitHubPathSpec{Owner: segments[0], Repo: segments[1]}

	rest := compact(segments[3:])
	if n := len(rest); n > 0 {
		wc, ok, err := parseWildcard(rest[n-1])
		if err != nil {
			return GitHubPathSpec{}, err
		}
		if ok {
			spec.Wildcard = wc
			rest = rest[:n-1]
		}
	}
	if len(rest) == 0 {
		if spec.Wildcard.IsSet() {
			// A pattern right after the tree marker leaves no branch to download.
			return GitHubPathSpec{}, hookerr.New(hookerr.KindEmptyRepoURLOrBranch, hookerr.Params{
				"owner": spec.Owner, "repo": spec.Repo, "branch": "",
			}, nil)
		}
		return spec, nil
	}

	branchLen := 1
	if len(rest) > 1 && isNamespace(rest[0], opts.branchNamespaces()) {
		branchLen = 2
	}
	branch := make([]string, 0, branchLen)
	for _, seg := range rest[:branchLen] {
		decoded, err := url.PathUnescape(seg)
		if err != nil {
			return GitHubPathSpec{}, invalid
		}
		branch = append(branch, decoded)
	}
	spec.Branch = strings.Join(branch, "/")
	spec.Subpath = strings.Join(rest[branchLen:], "/")
	return spec, nil
}

func (o GitHubOptions) branchNamespaces() []string {
	if o.BranchNamespaces == nil {
		return DefaultBranchNamespaces
	}
	return o.BranchNamespaces
}

func isNamespace(seg string, namespaces []string) bool {
	for _, ns := range namespaces {
		if strings.EqualFold(seg, ns) {
			return true
		}
	}
	return false
}

func compact(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
