package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/complyon/kyc-pipeline/internal/core/domain"
	"github.com/complyon/kyc-pipeline/internal/core/ports"
)

type savingStorageFake struct {
	saved   map[string]string
	saveErr error
}

func (f *savingStorageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	content, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if f.saved == nil {
		f.saved = map[string]string{}
	}
	f.saved[key] = string(content)
	return nil
}

func (f *savingStorageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (f *savingStorageFake) Stat(context.Context, string) (domain.Document, error) {
	return domain.Document{}, errors.New("not implemented")
}

type queueFake struct {
	published  []string
	publishErr error
}

func (f *queueFake) PublishBatchSubmitted(_ context.Context, batchID string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, batchID)
	return nil
}

func (f *queueFake) SubscribeBatchSubmitted(context.Context, func(context.Context, string) error) error {
	return nil
}

type createRepoFake struct {
	created   *domain.Batch
	createErr error
}

func (f *createRepoFake) CreateBatch(_ context.Context, batch *domain.Batch) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = batch
	return nil
}

func (f *createRepoFake) GetBatch(context.Context, string) (*domain.Batch, error) {
	return nil, errors.New("not implemented")
}

func (f *createRepoFake) UpdateBatchStatus(context.Context, string, domain.BatchStatus, string) error {
	return nil
}

func (f *createRepoFake) SavePackage(context.Context, string, *domain.ProcessingPackage) error {
	return nil
}

func (f *createRepoFake) GetPackage(context.Context, string) (*domain.ProcessingPackage, error) {
	return nil, errors.New("not implemented")
}

func TestSubmitBatch(t *testing.T) {
	repo := &createRepoFake{}
	storage := &savingStorageFake{}
	queue := &queueFake{}
	uc := NewSubmitBatchUseCase(repo, storage, queue)

	batch, err := uc.Submit(context.Background(), []ports.BatchUpload{
		{FileName: "passport scan.pdf", Body: strings.NewReader("pdf-bytes")},
		{FileName: "статья.txt", Body: strings.NewReader("text")},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if batch.ID == "" {
		t.Fatal("batch id not assigned")
	}
	if batch.Status != domain.BatchPending {
		t.Fatalf("status = %s, want pending", batch.Status)
	}
	if len(batch.Files) != 2 {
		t.Fatalf("files = %d, want 2", len(batch.Files))
	}
	if batch.Files[0].FileName != "passport scan.pdf" {
		t.Fatalf("original filename lost: %q", batch.Files[0].FileName)
	}
	if strings.Contains(batch.Files[0].StoragePath, " ") {
		t.Fatalf("storage key %q not sanitized", batch.Files[0].StoragePath)
	}
	if len(storage.saved) != 2 {
		t.Fatalf("saved objects = %d, want 2", len(storage.saved))
	}
	if storage.saved[batch.Files[0].StoragePath] != "pdf-bytes" {
		t.Fatal("upload body not stored")
	}
	if repo.created == nil || repo.created.ID != batch.ID {
		t.Fatal("batch record not created")
	}
	if len(queue.published) != 1 || queue.published[0] != batch.ID {
		t.Fatalf("published = %v, want the batch id", queue.published)
	}
}

func TestSubmitEmptyBatch(t *testing.T) {
	uc := NewSubmitBatchUseCase(&createRepoFake{}, &savingStorageFake{}, &queueFake{})

	_, err := uc.Submit(context.Background(), nil)
	if !domain.IsKind(err, domain.ErrBatchFatal) {
		t.Fatalf("error = %v, want batch fatal", err)
	}
}

func TestSubmitStorageFailure(t *testing.T) {
	uc := NewSubmitBatchUseCase(&createRepoFake{}, &savingStorageFake{saveErr: errors.New("disk full")}, &queueFake{})

	_, err := uc.Submit(context.Background(), []ports.BatchUpload{
		{FileName: "a.pdf", Body: strings.NewReader("x")},
	})
	if err == nil || !strings.Contains(err.Error(), "object storage") {
		t.Fatalf("error = %v, want storage failure", err)
	}
}

func TestSubmitPublishFailure(t *testing.T) {
	uc := NewSubmitBatchUseCase(&createRepoFake{}, &savingStorageFake{}, &queueFake{publishErr: errors.New("nats down")})

	_, err := uc.Submit(context.Background(), []ports.BatchUpload{
		{FileName: "a.pdf", Body: strings.NewReader("x")},
	})
	if err == nil || !strings.Contains(err.Error(), "publish") {
		t.Fatalf("error = %v, want publish failure", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"simple.pdf", "simple.pdf"},
		{"with space.pdf", "with_space.pdf"},
		{"../../etc/passwd", "passwd"},
		{"статья.txt", "______.txt"},
		{"", "document.bin"},
	}
	for _, tc := range cases {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
