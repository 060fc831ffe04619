package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/complyon/kyc-pipeline/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*BatchRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &BatchRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestCreateBatch(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	batch := &domain.Batch{
		ID:     "batch-1",
		Status: domain.BatchPending,
		Files: []domain.BatchFile{
			{FileName: "form.pdf", StoragePath: "batch-1_form.pdf"},
		},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	filesJSON, _ := json.Marshal(batch.Files)

	mock.ExpectExec("INSERT INTO batches").
		WithArgs(batch.ID, filesJSON, string(batch.Status), batch.Error, batch.CreatedAt, batch.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.CreateBatch(context.Background(), batch); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetBatch(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	files := []domain.BatchFile{{FileName: "form.pdf", StoragePath: "batch-1_form.pdf"}}
	filesJSON, _ := json.Marshal(files)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, files, status, error_message").
		WithArgs("batch-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "files", "status", "error_message", "created_at", "updated_at"}).
			AddRow("batch-1", filesJSON, "processing", "", now, now))

	batch, err := repo.GetBatch(context.Background(), "batch-1")
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if batch.Status != domain.BatchProcessing {
		t.Fatalf("status = %s, want processing", batch.Status)
	}
	if len(batch.Files) != 1 || batch.Files[0].FileName != "form.pdf" {
		t.Fatalf("files = %+v", batch.Files)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetBatchReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, files, status, error_message").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetBatch(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrBatchNotFound) {
		t.Fatalf("expected ErrBatchNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateBatchStatusReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE batches").
		WithArgs("missing", string(domain.BatchProcessing), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateBatchStatus(context.Background(), "missing", domain.BatchProcessing, "")
	if !domain.IsKind(err, domain.ErrBatchNotFound) {
		t.Fatalf("expected ErrBatchNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSavePackage(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	pkg := &domain.ProcessingPackage{PackageID: "KYC_20260831_120000_0001", TotalFiles: 1}
	pkgJSON, _ := json.Marshal(pkg)

	mock.ExpectExec("UPDATE batches").
		WithArgs("batch-1", pkgJSON, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SavePackage(context.Background(), "batch-1", pkg); err != nil {
		t.Fatalf("SavePackage: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetPackage(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	pkg := &domain.ProcessingPackage{PackageID: "KYC_20260831_120000_0001", TotalFiles: 2}
	pkgJSON, _ := json.Marshal(pkg)

	mock.ExpectQuery("SELECT package").
		WithArgs("batch-1").
		WillReturnRows(sqlmock.NewRows([]string{"package"}).AddRow(pkgJSON))

	got, err := repo.GetPackage(context.Background(), "batch-1")
	if err != nil {
		t.Fatalf("GetPackage: %v", err)
	}
	if got.PackageID != pkg.PackageID || got.TotalFiles != 2 {
		t.Fatalf("package = %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetPackageBeforeProcessingFinishes(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT package").
		WithArgs("batch-1").
		WillReturnRows(sqlmock.NewRows([]string{"package"}).AddRow(nil))

	_, err := repo.GetPackage(context.Background(), "batch-1")
	if !domain.IsKind(err, domain.ErrBatchNotFound) {
		t.Fatalf("expected ErrBatchNotFound for missing package, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
