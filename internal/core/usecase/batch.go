package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/complyon/kyc-pipeline/internal/core/domain"
	"github.com/complyon/kyc-pipeline/internal/core/ports"
)

// BatchMetrics receives pipeline observations. The batch use case only talks
// to this narrow interface so the CLI can run without a metrics backend.
type BatchMetrics interface {
	StartDocument()
	FinishDocument(route string, duration time.Duration, failed bool)
	ObserveStage(stage string, duration time.Duration)
	ObserveQueueLag(lag time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) StartDocument()                             {}
func (noopMetrics) FinishDocument(string, time.Duration, bool) {}
func (noopMetrics) ObserveStage(string, time.Duration)         {}
func (noopMetrics) ObserveQueueLag(time.Duration)              {}

// BatchUseCase fans a batch out over a bounded worker pool, waits for every
// document to reach a terminal state, and emits one ProcessingPackage.
type BatchUseCase struct {
	repo     ports.BatchRepository
	storage  ports.ObjectStorage
	pipeline *DocumentPipeline
	metrics  BatchMetrics
	logger   *slog.Logger

	workers      int
	batchTimeout time.Duration
	now          func() time.Time
	seq          atomic.Uint64
}

func NewBatchUseCase(
	repo ports.BatchRepository,
	storage ports.ObjectStorage,
	pipeline *DocumentPipeline,
	metrics BatchMetrics,
	logger *slog.Logger,
	workers int,
	batchTimeout time.Duration,
) *BatchUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 4
	}
	return &BatchUseCase{
		repo:         repo,
		storage:      storage,
		pipeline:     pipeline,
		metrics:      metrics,
		logger:       logger,
		workers:      workers,
		batchTimeout: batchTimeout,
		now:          time.Now,
	}
}

// ProcessBatch loads a submitted batch, runs the pipeline over its files, and
// persists the resulting package.
func (uc *BatchUseCase) ProcessBatch(ctx context.Context, batchID string) (*domain.ProcessingPackage, error) {
	batch, err := uc.repo.GetBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("fetch batch: %w", err)
	}
	uc.metrics.ObserveQueueLag(uc.now().Sub(batch.CreatedAt))
	if err := uc.repo.UpdateBatchStatus(ctx, batchID, domain.BatchProcessing, ""); err != nil {
		return nil, fmt.Errorf("set status=processing: %w", err)
	}

	docs, err := uc.resolveDocuments(ctx, batch)
	if err == nil {
		var pkg *domain.ProcessingPackage
		pkg, err = uc.ProcessDocuments(ctx, docs)
		if err == nil {
			if err = uc.repo.SavePackage(ctx, batchID, pkg); err != nil {
				err = fmt.Errorf("save package: %w", err)
			} else if err = uc.repo.UpdateBatchStatus(ctx, batchID, domain.BatchCompleted, ""); err != nil {
				err = fmt.Errorf("set status=completed: %w", err)
			} else {
				return pkg, nil
			}
		}
	}

	if failErr := uc.repo.UpdateBatchStatus(ctx, batchID, domain.BatchFailed, err.Error()); failErr != nil {
		return nil, fmt.Errorf("%w; mark failed status: %v", err, failErr)
	}
	return nil, err
}

// resolveDocuments builds pipeline inputs from stored batch files. Individual
// stat failures degrade to a placeholder document that fails at extraction;
// a batch where no file resolves at all is fatal.
func (uc *BatchUseCase) resolveDocuments(ctx context.Context, batch *domain.Batch) ([]domain.Document, error) {
	docs := make([]domain.Document, 0, len(batch.Files))
	readable := 0
	for _, file := range batch.Files {
		doc, err := uc.storage.Stat(ctx, file.StoragePath)
		if err != nil {
			uc.logger.Warn("batch_file_unreadable", "batch_id", batch.ID, "file", file.FileName, "error", err)
			doc = domain.Document{
				FileName:    file.FileName,
				Path:        file.StoragePath,
				StoragePath: file.StoragePath,
			}
		} else {
			readable++
		}
		doc.ID = fmt.Sprintf("%s/%s", batch.ID, file.FileName)
		doc.FileName = file.FileName
		doc.Category = ClassifyFile(file.FileName)
		docs = append(docs, doc)
	}
	if len(docs) > 0 && readable == 0 {
		return nil, domain.WrapError(domain.ErrBatchFatal, "resolve batch files", errors.New("no readable input files"))
	}
	return docs, nil
}

// ProcessDocuments runs the full pipeline over an already-classified document
// list. Every input document yields exactly one terminal record in the
// package; the wait at the end is a join barrier, not a race.
func (uc *BatchUseCase) ProcessDocuments(ctx context.Context, docs []domain.Document) (*domain.ProcessingPackage, error) {
	if len(docs) == 0 {
		return nil, domain.WrapError(domain.ErrBatchFatal, "process documents", errors.New("no input documents"))
	}

	start := uc.now().UTC()
	if uc.batchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.batchTimeout)
		defer cancel()
	}

	outcomes := make([]PipelineOutcome, len(docs))
	sem := make(chan struct{}, uc.workers)
	var wg sync.WaitGroup

	for i, doc := range docs {
		wg.Add(1)
		go func(i int, doc domain.Document) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				outcomes[i] = cancelledOutcome(doc, ctx.Err(), uc.now().UTC())
				return
			}

			uc.metrics.StartDocument()
			docStart := uc.now()
			outcomes[i] = uc.pipeline.Run(ctx, doc)
			result := outcomes[i].Result
			uc.metrics.FinishDocument(routeLabel(result), uc.now().Sub(docStart), result.Status != domain.StatusProcessed)
		}(i, doc)
	}
	wg.Wait()

	return uc.finalize(start, docs, outcomes), nil
}

// finalize is the single place the aggregate package is assembled; everything
// upstream of it is immutable per-document data.
func (uc *BatchUseCase) finalize(start time.Time, docs []domain.Document, outcomes []PipelineOutcome) *domain.ProcessingPackage {
	seq := uc.seq.Add(1)

	results := make([]domain.DocumentResult, 0, len(outcomes))
	audit := make([]domain.AuditEntry, 0, len(outcomes)*5)
	stageTotals := map[string]time.Duration{}
	fieldState := domain.FieldServiceOK
	aggregate := domain.AggregateCompleted

	for _, out := range outcomes {
		results = append(results, out.Result)
		audit = append(audit, out.Audit...)
		for name, d := range out.StageDurations {
			stageTotals[name] += d
			uc.metrics.ObserveStage(name, d)
		}

		if out.Result.Status != domain.StatusProcessed {
			aggregate = domain.AggregatePartial
		}
		if out.Result.Extraction != nil && out.Result.Extraction.Failed {
			aggregate = domain.AggregatePartial
		}

		switch out.FieldState {
		case domain.FieldServiceUnconfigured:
			fieldState = domain.FieldServiceUnconfigured
		case domain.FieldServiceUnavailable:
			if fieldState == domain.FieldServiceOK {
				fieldState = domain.FieldServiceUnavailable
			}
		}
	}

	durationsMS := make(map[string]float64, len(stageTotals))
	for name, d := range stageTotals {
		durationsMS[name] = float64(d.Microseconds()) / 1000.0
	}

	return &domain.ProcessingPackage{
		PackageID:         fmt.Sprintf("KYC_%s_%04d", start.Format("20060102_150405"), seq),
		CreatedAt:         start,
		TotalFiles:        len(docs),
		FileCategories:    CountCategories(docs),
		Results:           results,
		AggregateStatus:   aggregate,
		FieldServiceState: fieldState,
		AuditEntries:      audit,
		StageDurationsMS:  durationsMS,
	}
}

func cancelledOutcome(doc domain.Document, cause error, at time.Time) PipelineOutcome {
	detail := "batch cancelled before processing"
	if cause != nil {
		detail = fmt.Sprintf("%s: %v", detail, cause)
	}
	return PipelineOutcome{
		Result: domain.DocumentResult{
			Document: doc,
			Status:   domain.StatusCancelled,
			Error:    detail,
		},
		Audit: []domain.AuditEntry{{
			DocumentID: doc.ID,
			Stage:      "batch",
			Outcome:    "cancelled",
			Detail:     detail,
			At:         at,
		}},
		FieldState: domain.FieldServiceOK,
	}
}

func routeLabel(result domain.DocumentResult) string {
	if result.Routing != nil {
		return string(result.Routing.Route)
	}
	return string(result.Status)
}
