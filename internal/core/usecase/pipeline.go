package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/complyon/kyc-pipeline/internal/core/domain"
	"github.com/complyon/kyc-pipeline/internal/core/ports"
)

type stageOutcome int

const (
	stageContinue stageOutcome = iota
	stageSkip
	stageFail
)

func (o stageOutcome) String() string {
	switch o {
	case stageContinue:
		return "completed"
	case stageSkip:
		return "skipped"
	default:
		return "failed"
	}
}

// documentRun is the per-document context threaded through the stage list.
// Each worker owns exactly one, so stage writes need no locking; the batch
// merges runs at the join barrier.
type documentRun struct {
	doc        domain.Document
	extraction *domain.ExtractionResult
	record     *domain.KYCRecord
	quality    *domain.QualityReport
	risk       *domain.RiskProfile
	routing    *domain.RoutingDecision
	fieldState domain.FieldServiceState
	failure    string
	audit      []domain.AuditEntry
	durations  map[string]time.Duration
}

type stage struct {
	name string
	run  func(ctx context.Context, run *documentRun) (stageOutcome, string)
}

// DocumentPipeline runs the fixed stage sequence for one document:
// extract, extract_fields, validate, score, route. A stage may skip the rest
// of the run or fail it, but degraded content never aborts it.
type DocumentPipeline struct {
	extractor ports.ContentExtractor
	fields    ports.FieldExtractor
	validator *Validator
	scorer    *Scorer
	router    *Router
	logger    *slog.Logger
	now       func() time.Time
}

func NewDocumentPipeline(
	extractor ports.ContentExtractor,
	fields ports.FieldExtractor,
	validator *Validator,
	scorer *Scorer,
	router *Router,
	logger *slog.Logger,
) *DocumentPipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentPipeline{
		extractor: extractor,
		fields:    fields,
		validator: validator,
		scorer:    scorer,
		router:    router,
		logger:    logger,
		now:       time.Now,
	}
}

// PipelineOutcome bundles a document's terminal record with its audit lane
// and stage timings; the batch merges these at the join barrier.
type PipelineOutcome struct {
	Result         domain.DocumentResult
	Audit          []domain.AuditEntry
	StageDurations map[string]time.Duration
	FieldState     domain.FieldServiceState
}

// Run executes every stage for one document and always yields a terminal
// DocumentResult. Cancellation between stages produces a cancelled record.
func (p *DocumentPipeline) Run(ctx context.Context, doc domain.Document) PipelineOutcome {
	run := &documentRun{
		doc:        doc,
		fieldState: domain.FieldServiceOK,
		durations:  map[string]time.Duration{},
	}

	stages := []stage{
		{name: "extract", run: p.extract},
		{name: "extract_fields", run: p.extractFields},
		{name: "validate", run: p.validate},
		{name: "score", run: p.score},
		{name: "route", run: p.route},
	}

	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			p.record(run, st.name, "cancelled", err.Error())
			return p.terminal(run, domain.StatusCancelled, "batch cancelled before stage "+st.name)
		}

		start := p.now()
		outcome, detail := st.run(ctx, run)
		run.durations[st.name] = p.now().Sub(start)
		p.record(run, st.name, outcome.String(), detail)

		p.logger.Debug("pipeline_stage",
			"document_id", doc.ID,
			"stage", st.name,
			"outcome", outcome.String(),
			"detail", detail,
		)

		switch outcome {
		case stageFail:
			run.failure = fmt.Sprintf("stage %s: %s", st.name, detail)
			return p.terminal(run, domain.StatusFailed, run.failure)
		case stageSkip:
			return p.terminal(run, domain.StatusProcessed, "")
		}
	}

	return p.terminal(run, domain.StatusProcessed, "")
}

func (p *DocumentPipeline) extract(ctx context.Context, run *documentRun) (stageOutcome, string) {
	result, err := p.extractor.Extract(ctx, run.doc)
	if err != nil {
		// Unreadable input is a per-document failure, never a batch abort.
		return stageFail, err.Error()
	}
	run.extraction = &result
	if result.Failed {
		return stageContinue, "both extraction methods failed; continuing with empty content"
	}
	return stageContinue, string(result.Method)
}

func (p *DocumentPipeline) extractFields(ctx context.Context, run *documentRun) (stageOutcome, string) {
	if run.extraction == nil || !run.extraction.HasText() {
		run.record = nil
		return stageContinue, "no extracted content; external call skipped"
	}

	record, err := p.fields.ExtractFields(ctx, ports.FieldExtractionInput{
		Text:      run.extraction.Text,
		PageCount: run.extraction.PageCount,
		HasImages: run.extraction.TotalImageCount > 0,
	})
	if err != nil {
		run.record = nil
		if domain.IsKind(err, domain.ErrFieldUnconfigured) {
			run.fieldState = domain.FieldServiceUnconfigured
			return stageContinue, "field extraction not configured"
		}
		run.fieldState = domain.FieldServiceUnavailable
		return stageContinue, "field extraction unavailable: " + err.Error()
	}
	run.record = record
	return stageContinue, "fields extracted"
}

func (p *DocumentPipeline) validate(_ context.Context, run *documentRun) (stageOutcome, string) {
	report := p.validator.Validate(run.record)
	run.quality = &report
	return stageContinue, fmt.Sprintf("completeness %.1f%%, issues %d", report.CompletenessScore, len(report.ConsistencyIssues))
}

func (p *DocumentPipeline) score(_ context.Context, run *documentRun) (stageOutcome, string) {
	profile := p.scorer.Score(run.record, *run.quality)
	run.risk = &profile
	return stageContinue, fmt.Sprintf("score %.1f level %s", profile.RiskScore, profile.RiskLevel)
}

func (p *DocumentPipeline) route(_ context.Context, run *documentRun) (stageOutcome, string) {
	decision := p.router.Decide(*run.quality, *run.risk)
	run.routing = &decision
	return stageContinue, string(decision.Route)
}

func (p *DocumentPipeline) record(run *documentRun, stageName, outcome, detail string) {
	run.audit = append(run.audit, domain.AuditEntry{
		DocumentID: run.doc.ID,
		Stage:      stageName,
		Outcome:    outcome,
		Detail:     detail,
		At:         p.now().UTC(),
	})
}

func (p *DocumentPipeline) terminal(run *documentRun, status domain.DocumentStatus, errMessage string) PipelineOutcome {
	return PipelineOutcome{
		Result: domain.DocumentResult{
			Document:   run.doc,
			Status:     status,
			Extraction: run.extraction,
			KYCRecord:  run.record,
			Quality:    run.quality,
			Risk:       run.risk,
			Routing:    run.routing,
			Error:      errMessage,
		},
		Audit:          run.audit,
		StageDurations: run.durations,
		FieldState:     run.fieldState,
	}
}
