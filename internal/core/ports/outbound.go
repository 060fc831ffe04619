package ports

import (
	"context"
	"io"

	"github.com/complyon/kyc-pipeline/internal/core/domain"
)

// ContentExtractor pulls text and page structure out of a stored document.
// Implementations must degrade rather than fail: when every method is
// exhausted they return a result with Failed=true and no error.
type ContentExtractor interface {
	Extract(ctx context.Context, doc domain.Document) (domain.ExtractionResult, error)
}

// FieldExtractionInput is the boundary payload handed to the external
// field-extraction capability.
type FieldExtractionInput struct {
	Text      string
	PageCount int
	HasImages bool
}

// FieldExtractor converts extracted content into a draft KYC record. A nil
// record is never returned without an error; terminal failures surface as
// domain.ErrFieldUnavailable, a missing credential as
// domain.ErrFieldUnconfigured. Implementations own their timeout and retry
// policy and must honor ctx.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, input FieldExtractionInput) (*domain.KYCRecord, error)
}

// ObjectStorage stores uploaded source files and emitted packages.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Stat(ctx context.Context, key string) (domain.Document, error)
}

// BatchQueue publishes/consumes batch-submitted events.
type BatchQueue interface {
	PublishBatchSubmitted(ctx context.Context, batchID string) error
	SubscribeBatchSubmitted(ctx context.Context, handler func(context.Context, string) error) error
}

// BatchRepository persists batch state and the finished package.
type BatchRepository interface {
	CreateBatch(ctx context.Context, batch *domain.Batch) error
	GetBatch(ctx context.Context, id string) (*domain.Batch, error)
	UpdateBatchStatus(ctx context.Context, id string, status domain.BatchStatus, errMessage string) error
	SavePackage(ctx context.Context, batchID string, pkg *domain.ProcessingPackage) error
	GetPackage(ctx context.Context, batchID string) (*domain.ProcessingPackage, error)
}
