package hooks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cordum/pathpack/core/archive"
	"github.com/cordum/pathpack/core/hookerr"
	"github.com/cordum/pathpack/core/infra/fsutil"
	"github.com/cordum/pathpack/core/infra/logging"
	"github.com/cordum/pathpack/core/records"
)

const (
	stageReadDescriptors   = "read_descriptors"
	stageResolve           = "resolve"
	stageCheckNonEmpty     = "check_nonempty"
	stageBuildArchive      = "build_archive"
	stageReplaceAttachment = "replace_attachment"
)

var errNilRecord = errors.New("nil record")

// resolveFunc turns one raw descriptor into archive entries.
type resolveFunc func(ctx context.Context, raw string) ([]archive.File, error)

// pipeline is the execution shared by the hook variants.
type pipeline struct {
	hookType      string
	deps          Deps
	resolve       resolveFunc
	noDescriptors hookerr.Kind
}

func (p *pipeline) Type() string { return p.hookType }

// TypeCheck reports whether recordType selects this hook. The match is exact
// and case-sensitive.
func (p *pipeline) TypeCheck(recordType string) bool {
	return recordType != "" && recordType == p.hookType
}

// Exec packages rec's descriptors and replaces its attachment. Cancellation
// of ctx after Exec starts is ignored.
func (p *pipeline) Exec(ctx context.Context, rec *records.Record) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithoutCancel(ctx)
	component := p.component()
	if rec == nil {
		return p.fail(nil, stageReadDescriptors, errNilRecord)
	}

	start := time.Now()
	stage := stageReadDescriptors
	var tmp *archive.TempArchive
	defer func() {
		if tmp != nil {
			if rmErr := fsutil.DeletePath(tmp.Path, true); rmErr != nil {
				logging.Warn(component, "temporary archive not released", "record", rec.ID, "path", tmp.Path, "error", rmErr)
			} else {
				logging.Info(component, "temporary archive released", "record", rec.ID, "path", tmp.Path)
			}
		}
		p.deps.Metrics.ObserveExecDuration(p.hookType, time.Since(start).Seconds())
		if err != nil {
			err = p.fail(rec, stage, err)
			return
		}
		p.deps.Metrics.IncExec(p.hookType, "ok")
	}()

	logging.Info(component, "exec start", "record", rec.ID, "name", rec.Name)
	descriptors, err := p.deps.Descriptors.PathDescriptors(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("read descriptors: %w", err)
	}
	if len(descriptors) == 0 {
		return hookerr.New(p.noDescriptors, hookerr.Params{"record": rec.ID}, nil)
	}

	stage = stageResolve
	files, err := p.resolveAll(ctx, rec, descriptors)
	if err != nil {
		return err
	}

	stage = stageCheckNonEmpty
	if len(files) == 0 {
		return hookerr.New(hookerr.KindNoFilesFound, hookerr.Params{"record": rec.ID}, nil)
	}

	stage = stageBuildArchive
	tmp, err = p.deps.Builder.Build(files)
	if err != nil {
		return fmt.Errorf("build archive: %w", err)
	}
	logging.Info(component, "archive built", "record", rec.ID, "entries", tmp.Entries, "bytes", tmp.SizeBytes)
	p.deps.Metrics.AddFilesPackaged(p.hookType, tmp.Entries)

	stage = stageReplaceAttachment
	if err := p.replaceAttachment(ctx, rec, tmp.Path); err != nil {
		return err
	}
	logging.Info(component, "exec done", "record", rec.ID)
	return nil
}

// resolveAll merges the entries of every descriptor in order. When two
// descriptors produce the same relative path the first one wins.
func (p *pipeline) resolveAll(ctx context.Context, rec *records.Record, descriptors []string) ([]archive.File, error) {
	seen := make(map[string]int)
	var merged []archive.File
	for i, raw := range descriptors {
		files, err := p.resolve(ctx, raw)
		if err != nil {
			return nil, err
		}
		logging.Info(p.component(), "descriptor resolved", "record", rec.ID, "index", i, "files", len(files))
		for _, f := range files {
			if prev, dup := seen[f.Path]; dup {
				logging.Warn(p.component(), "duplicate entry skipped", "record", rec.ID, "path", f.Path,
					"kept_from", prev, "descriptor", i)
				continue
			}
			seen[f.Path] = i
			merged = append(merged, f)
		}
	}
	return merged, nil
}

func (p *pipeline) replaceAttachment(ctx context.Context, rec *records.Record, path string) error {
	existing, err := p.deps.Attachments.Existing(ctx, FileTabID, rec.ID)
	if err != nil {
		return fmt.Errorf("lookup attachment: %w", err)
	}
	if existing != nil {
		if err := p.deps.Attachments.Delete(ctx, existing); err != nil {
			logging.Warn(p.component(), "could not remove previous attachment", "record", rec.ID,
				"attachment", existing.ID, "error", err)
		}
	}
	att, err := p.deps.Attachments.Upload(ctx, path, FileTabID, rec.ID, rec.OrganizationID)
	if err != nil {
		return fmt.Errorf("upload attachment: %w", err)
	}
	if att != nil {
		logging.Info(p.component(), "attachment uploaded", "record", rec.ID, "attachment", att.ID, "bytes", att.SizeBytes)
	}
	return nil
}

// fail wraps err as ErrorAttachingFile, renders the chain with the
// configured catalog and records the failing stage.
func (p *pipeline) fail(rec *records.Record, stage string, err error) error {
	wrapped := hookerr.New(hookerr.KindErrorAttachingFile, nil, err)
	hookerr.Localize(wrapped, p.deps.Messages)
	p.deps.Metrics.IncExec(p.hookType, "failed")
	p.deps.Metrics.IncStageFailure(p.hookType, stage)
	id := ""
	if rec != nil {
		id = rec.ID
	}
	logging.Error(p.component(), "exec failed", "record", id, "stage", stage, "error", err)
	return wrapped
}

func (p *pipeline) component() string {
	return "hook-" + p.hookType
}
