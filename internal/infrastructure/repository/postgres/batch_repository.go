package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/complyon/kyc-pipeline/internal/core/domain"
)

type BatchRepository struct {
	db *sql.DB
}

func NewBatchRepository(db *sql.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *BatchRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS batches (
	id TEXT PRIMARY KEY,
	files JSONB NOT NULL DEFAULT '[]'::jsonb,
	status TEXT NOT NULL,
	error_message TEXT,
	package JSONB,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_batches_status ON batches(status);
CREATE INDEX IF NOT EXISTS idx_batches_created_at ON batches(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *BatchRepository) CreateBatch(ctx context.Context, batch *domain.Batch) error {
	filesJSON, err := json.Marshal(batch.Files)
	if err != nil {
		return fmt.Errorf("marshal batch files: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO batches (id, files, status, error_message, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, batch.ID, filesJSON, string(batch.Status), batch.Error, batch.CreatedAt, batch.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

func (r *BatchRepository) GetBatch(ctx context.Context, id string) (*domain.Batch, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, files, status, error_message, created_at, updated_at
FROM batches
WHERE id = $1
`, id)

	var batch domain.Batch
	var filesRaw []byte
	var status string

	err := row.Scan(&batch.ID, &filesRaw, &status, &batch.Error, &batch.CreatedAt, &batch.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrBatchNotFound, "get batch", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan batch: %w", err)
	}

	if err := json.Unmarshal(filesRaw, &batch.Files); err != nil {
		return nil, fmt.Errorf("unmarshal batch files: %w", err)
	}
	batch.Status = domain.BatchStatus(status)
	return &batch, nil
}

func (r *BatchRepository) UpdateBatchStatus(ctx context.Context, id string, status domain.BatchStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE batches
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update batch status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update batch status rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrBatchNotFound, "update batch status", fmt.Errorf("id=%s", id))
	}
	return nil
}

func (r *BatchRepository) SavePackage(ctx context.Context, batchID string, pkg *domain.ProcessingPackage) error {
	pkgJSON, err := json.Marshal(pkg)
	if err != nil {
		return fmt.Errorf("marshal package: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE batches
SET package = $2, updated_at = $3
WHERE id = $1
`, batchID, pkgJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save package: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save package rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrBatchNotFound, "save package", fmt.Errorf("id=%s", batchID))
	}
	return nil
}

func (r *BatchRepository) GetPackage(ctx context.Context, batchID string) (*domain.ProcessingPackage, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT package
FROM batches
WHERE id = $1
`, batchID)

	var pkgRaw []byte
	if err := row.Scan(&pkgRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrBatchNotFound, "get package", fmt.Errorf("id=%s", batchID))
		}
		return nil, fmt.Errorf("scan package: %w", err)
	}
	if len(pkgRaw) == 0 {
		return nil, domain.WrapError(domain.ErrBatchNotFound, "get package", fmt.Errorf("no package for batch id=%s", batchID))
	}

	var pkg domain.ProcessingPackage
	if err := json.Unmarshal(pkgRaw, &pkg); err != nil {
		return nil, fmt.Errorf("unmarshal package: %w", err)
	}
	return &pkg, nil
}
