// Package hooks packages the path descriptors of a record into a single zip
// archive and replaces the record's attachment with it.
//
// Two variants exist. LocalHook resolves descriptors against the local
// filesystem and GitHubHook resolves them against GitHub branch archives.
// Both run the same pipeline:
//
//	read_descriptors -> resolve -> check_nonempty -> build_archive ->
//	replace_attachment -> cleanup
//
// The temporary archive is removed on every exit path before an error is
// returned, and every failure surfaces as an ErrorAttachingFile error whose
// cause chain keeps the specific kind.
package hooks

import (
	"context"

	"github.com/cordum/pathpack/core/archive"
	"github.com/cordum/pathpack/core/attach"
	"github.com/cordum/pathpack/core/infra/messages"
	"github.com/cordum/pathpack/core/infra/metrics"
	"github.com/cordum/pathpack/core/records"
)

const (
	TypeLocal  = "COPDEV_CI"
	TypeGitHub = "COPDEV_GIT"

	// FileTabID is the table the archive is attached under.
	FileTabID = "09F802E423924081BC2947A64DDB5AF5"
)

// Hook is a packaging variant selected by record type.
type Hook interface {
	Type() string
	TypeCheck(recordType string) bool
	Exec(ctx context.Context, rec *records.Record) error
}

// DescriptorSource lists a record's descriptors in order.
type DescriptorSource interface {
	PathDescriptors(ctx context.Context, recordID string) ([]string, error)
}

// ArchiveBuilder writes resolved files into a temporary zip.
type ArchiveBuilder interface {
	Build(files []archive.File) (*archive.TempArchive, error)
}

// Deps are the collaborators shared by every hook variant.
type Deps struct {
	Descriptors DescriptorSource
	Attachments attach.Port
	Builder     ArchiveBuilder
	Messages    messages.Formatter
	Metrics     metrics.Metrics
}

func (d Deps) withDefaults() Deps {
	if d.Builder == nil {
		d.Builder = archive.Builder{}
	}
	if d.Messages == nil {
		d.Messages = messages.Default()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Noop{}
	}
	return d
}
