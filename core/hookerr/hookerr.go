// Package hookerr defines the failure kinds raised while packaging path
// descriptors into an attachment.
package hookerr

import (
	"errors"

	"github.com/cordum/pathpack/core/infra/messages"
)

// Kind classifies a packaging failure.
type Kind string

const (
	KindInvalidPathFileFormat Kind = "InvalidPathFileFormat"
	KindNoGitHubPathFound     Kind = "NoGitHubPathFound"
	KindNoPathsFound          Kind = "NoPathsFound"
	KindEmptyRepoURLOrBranch  Kind = "EmptyRepoUrlOrBranch"
	KindPathNotExists         Kind = "PathNotExists"
	KindBasePathInvalid       Kind = "BasePathInvalid"
	KindInvalidSubpathPattern Kind = "InvalidSubpathPattern"
	KindNoDirectoriesFound    Kind = "NoDirectoriesFound"
	KindDownloadFailed        Kind = "DownloadFailed"
	KindNoFilesFound          Kind = "NoFilesFound"
	KindErrorAttachingFile    Kind = "ErrorAttachingFile"
)

var messageKeys = map[Kind]string{
	KindInvalidPathFileFormat: "COPDEV_InvalidPathFileFormat",
	KindNoGitHubPathFound:     "COPDEV_NoGitHubPathFound",
	KindNoPathsFound:          "COPDEV_NoPathsFound",
	KindEmptyRepoURLOrBranch:  "COPDEV_EmptyRepoUrlOrBranch",
	KindPathNotExists:         "COPDEV_PathNotExists",
	KindBasePathInvalid:       "COPDEV_IsNotADirectory",
	KindInvalidSubpathPattern: "COPDEV_InvalidSubpathPattern",
	KindNoDirectoriesFound:    "COPDEV_NoDirectoriesFound",
	KindDownloadFailed:        "COPDEV_FailedToDownloadZip",
	KindNoFilesFound:          "COPDEV_NoFilesFound",
	KindErrorAttachingFile:    "COPDEV_ErrorAttachingFile",
}

// MessageKey returns the catalog key used to render the kind.
func (k Kind) MessageKey() string {
	if key, ok := messageKeys[k]; ok {
		return key
	}
	return string(k)
}

// Sentinels for errors.Is comparisons by kind.
var (
	ErrInvalidPathFileFormat = &Error{Kind: KindInvalidPathFileFormat}
	ErrNoGitHubPathFound     = &Error{Kind: KindNoGitHubPathFound}
	ErrNoPathsFound          = &Error{Kind: KindNoPathsFound}
	ErrEmptyRepoURLOrBranch  = &Error{Kind: KindEmptyRepoURLOrBranch}
	ErrPathNotExists         = &Error{Kind: KindPathNotExists}
	ErrBasePathInvalid       = &Error{Kind: KindBasePathInvalid}
	ErrInvalidSubpathPattern = &Error{Kind: KindInvalidSubpathPattern}
	ErrNoDirectoriesFound    = &Error{Kind: KindNoDirectoriesFound}
	ErrDownloadFailed        = &Error{Kind: KindDownloadFailed}
	ErrNoFilesFound          = &Error{Kind: KindNoFilesFound}
	ErrErrorAttachingFile    = &Error{Kind: KindErrorAttachingFile}
)

// Params carries the named placeholders of a message.
type Params map[string]string

// Error is a packaging failure with a renderable message and optional cause.
type Error struct {
	Kind    Kind
	Params  Params
	Message string
	Err     error
}

// New builds an Error of kind with params and an optional cause.
func New(kind Kind, params Params, cause error) *Error {
	return &Error{Kind: kind, Params: params, Err: cause}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = messages.Default().Format(e.Kind.MessageKey(), e.Params)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var he *Error
	if errors.As(err, &he) {
		return he.Kind, true
	}
	return "", false
}

// RootKind returns the kind of the innermost *Error in err's chain.
func RootKind(err error) (Kind, bool) {
	var kind Kind
	found := false
	for e := err; e != nil; e = errors.Unwrap(e) {
		if he, ok := e.(*Error); ok {
			kind = he.Kind
			found = true
		}
	}
	return kind, found
}

// Localize renders every unrendered *Error in err's chain with f.
func Localize(err error, f messages.Formatter) {
	if f == nil {
		return
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		if he, ok := e.(*Error); ok && he.Message == "" {
			he.Message = f.Format(he.Kind.MessageKey(), he.Params)
		}
	}
}
