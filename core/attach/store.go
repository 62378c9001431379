// Package attach stores the packaged archive attached to a record.
package attach

import (
	"context"
	"time"
)

// Attachment describes an archive attached to a record.
type Attachment struct {
	ID             string    `json:"id"`
	TableID        string    `json:"table_id"`
	RecordID       string    `json:"record_id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	SizeBytes      int64     `json:"size_bytes"`
	CreatedAt      time.Time `json:"created_at"`
}

// Port is the attachment surface the hooks depend on.
type Port interface {
	// Existing returns the current attachment for the record, or nil when
	// there is none.
	Existing(ctx context.Context, tableID, recordID string) (*Attachment, error)
	Delete(ctx context.Context, att *Attachment) error
	// Upload stores the file at path as the record's attachment.
	Upload(ctx context.Context, path, tableID, recordID, orgID string) (*Attachment, error)
}
