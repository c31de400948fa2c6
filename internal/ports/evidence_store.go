package ports

import (
	"context"

	"aeroqualify/internal/domain/qms"
)

// EvidenceUpload is one file handed to the evidence store.
type EvidenceUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// EvidenceStore persists file bytes and returns the metadata to attach to a CAP.
type EvidenceStore interface {
	Put(ctx context.Context, carID string, upload EvidenceUpload) (qms.EvidenceFile, error)
}
