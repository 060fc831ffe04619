package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/complyon/kyc-pipeline/internal/core/domain"
	"github.com/complyon/kyc-pipeline/internal/core/ports"
)

// SubmitBatchUseCase accepts uploaded files, stores them, records the batch,
// and hands it to the queue for asynchronous processing.
type SubmitBatchUseCase struct {
	repo    ports.BatchRepository
	storage ports.ObjectStorage
	queue   ports.BatchQueue
}

func NewSubmitBatchUseCase(
	repo ports.BatchRepository,
	storage ports.ObjectStorage,
	queue ports.BatchQueue,
) *SubmitBatchUseCase {
	return &SubmitBatchUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

func (uc *SubmitBatchUseCase) Submit(ctx context.Context, uploads []ports.BatchUpload) (*domain.Batch, error) {
	if len(uploads) == 0 {
		return nil, domain.WrapError(domain.ErrBatchFatal, "submit batch", errors.New("no files in batch"))
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	files := make([]domain.BatchFile, 0, len(uploads))
	for _, upload := range uploads {
		storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(upload.FileName))
		if err := uc.storage.Save(ctx, storageKey, upload.Body); err != nil {
			return nil, fmt.Errorf("save %s to object storage: %w", upload.FileName, err)
		}
		files = append(files, domain.BatchFile{
			FileName:    upload.FileName,
			StoragePath: storageKey,
		})
	}

	batch := &domain.Batch{
		ID:        id,
		Files:     files,
		Status:    domain.BatchPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.repo.CreateBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("create batch record: %w", err)
	}

	if err := uc.queue.PublishBatchSubmitted(ctx, batch.ID); err != nil {
		return nil, fmt.Errorf("publish batch event: %w", err)
	}

	return batch, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == ".." {
		return "document.bin"
	}
	return base
}
