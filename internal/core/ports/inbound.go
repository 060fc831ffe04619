package ports

import (
	"context"
	"io"

	"github.com/complyon/kyc-pipeline/internal/core/domain"
)

// BatchUpload is one file of a submitted batch.
type BatchUpload struct {
	FileName string
	Body     io.Reader
}

// BatchSubmitter is the inbound contract for accepting a batch of files.
type BatchSubmitter interface {
	Submit(ctx context.Context, uploads []BatchUpload) (*domain.Batch, error)
}

// BatchProcessor runs the full pipeline for a previously submitted batch.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, batchID string) (*domain.ProcessingPackage, error)
}

// BatchReader is the inbound read model for batch state and packages.
type BatchReader interface {
	GetBatch(ctx context.Context, id string) (*domain.Batch, error)
	GetPackage(ctx context.Context, batchID string) (*domain.ProcessingPackage, error)
}
