// Package content extracts text and page structure from stored onboarding
// documents. PDF files get a page-by-page primary pass with a whole-document
// fallback; spreadsheets, DOCX, and plain text each have a single method.
// Exhausting every method degrades to an empty, failed-flagged result instead
// of an error, so a broken file never halts a batch.
package content

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/complyon/kyc-pipeline/internal/core/domain"
	"github.com/complyon/kyc-pipeline/internal/core/ports"
)

type Extractor struct {
	storage    ports.ObjectStorage
	snippetMax int
	logger     *slog.Logger
}

func NewExtractor(storage ports.ObjectStorage, snippetMax int, logger *slog.Logger) *Extractor {
	if snippetMax <= 0 {
		snippetMax = 5000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		storage:    storage,
		snippetMax: snippetMax,
		logger:     logger,
	}
}

func (e *Extractor) Extract(ctx context.Context, doc domain.Document) (domain.ExtractionResult, error) {
	if doc.Category != domain.CategoryDocument {
		return domain.ExtractionResult{Method: domain.MethodNone}, nil
	}

	key := doc.StoragePath
	if key == "" {
		key = doc.Path
	}
	reader, err := e.storage.Open(ctx, key)
	if err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("open document %s: %w", doc.FileName, err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("read document %s: %w", doc.FileName, err)
	}

	switch strings.ToLower(doc.Extension) {
	case ".pdf":
		return e.extractPDF(doc, raw), nil
	case ".docx":
		return e.singleMethod(doc, raw, extractDOCX), nil
	case ".xlsx", ".xls":
		return e.singleMethod(doc, raw, extractWorkbook), nil
	default:
		return e.singleMethod(doc, raw, extractPlaintext), nil
	}
}

func (e *Extractor) extractPDF(doc domain.Document, raw []byte) domain.ExtractionResult {
	result, primaryErr := extractPDFPerPage(raw)
	if primaryErr == nil {
		return e.finish(result, domain.MethodPrimary)
	}
	e.logger.Warn("pdf_primary_extraction_failed", "file", doc.FileName, "error", primaryErr)

	result, fallbackErr := extractPDFWholeText(raw)
	if fallbackErr == nil {
		return e.finish(result, domain.MethodFallback)
	}
	e.logger.Warn("pdf_fallback_extraction_failed", "file", doc.FileName, "error", fallbackErr)

	return domain.ExtractionResult{
		Method:        domain.MethodNone,
		Failed:        true,
		FailureReason: fmt.Sprintf("primary: %v; fallback: %v", primaryErr, fallbackErr),
	}
}

func (e *Extractor) singleMethod(doc domain.Document, raw []byte, fn func([]byte) (rawResult, error)) domain.ExtractionResult {
	result, err := fn(raw)
	if err != nil {
		e.logger.Warn("content_extraction_failed", "file", doc.FileName, "error", err)
		return domain.ExtractionResult{
			Method:        domain.MethodNone,
			Failed:        true,
			FailureReason: err.Error(),
		}
	}
	return e.finish(result, domain.MethodPrimary)
}

// rawResult is an extraction method's untruncated output before statistics
// and snippet capping are applied.
type rawResult struct {
	text       string
	pageCount  int
	pages      []domain.PageDetail
	imageCount int
}

func (e *Extractor) finish(raw rawResult, method domain.ExtractionMethod) domain.ExtractionResult {
	text := raw.text
	charCount := len(text)
	wordCount := len(strings.Fields(text))
	if len(text) > e.snippetMax {
		// Never cut through a multi-byte rune.
		cut := e.snippetMax
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}

	return domain.ExtractionResult{
		Method:          method,
		Text:            text,
		PageCount:       raw.pageCount,
		Pages:           raw.pages,
		CharacterCount:  charCount,
		WordCount:       wordCount,
		TotalImageCount: raw.imageCount,
	}
}
