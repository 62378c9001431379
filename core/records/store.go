// Package records holds the records hooks package descriptors for.
package records

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("record not found")

// Record is the host entity a hook runs for. Type selects the hook.
type Record struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
}

// Store reads records and their ordered path descriptors.
type Store interface {
	Get(ctx context.Context, id string) (*Record, error)
	PathDescriptors(ctx context.Context, id string) ([]string, error)
	Put(ctx context.Context, rec Record, descriptors []string) error
}
