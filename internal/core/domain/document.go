package domain

import "time"

type FileCategory string

const (
	CategoryDocument FileCategory = "document"
	CategoryImage    FileCategory = "image"
	CategoryOther    FileCategory = "other"
)

type ExtractionMethod string

const (
	MethodPrimary  ExtractionMethod = "primary"
	MethodFallback ExtractionMethod = "fallback"
	MethodNone     ExtractionMethod = "none"
)

// Document is the immutable per-file input to the pipeline.
type Document struct {
	ID          string       `json:"id"`
	FileName    string       `json:"file_name"`
	Path        string       `json:"path"`
	StoragePath string       `json:"storage_path,omitempty"`
	Extension   string       `json:"extension"`
	Category    FileCategory `json:"category"`
	SizeBytes   int64        `json:"size_bytes"`
	CreatedAt   time.Time    `json:"created_at"`
	ModifiedAt  time.Time    `json:"modified_at"`
}

type PageDetail struct {
	PageNumber int  `json:"page_number"`
	TextLength int  `json:"text_length"`
	HasText    bool `json:"has_text"`
	ImageCount int  `json:"image_count"`
}

// ExtractionResult is created once per document and never mutated afterward.
// Method none with Failed true means both extraction methods were exhausted;
// downstream stages treat the empty text as absence of evidence, not an error.
type ExtractionResult struct {
	Method          ExtractionMethod `json:"extraction_method"`
	Text            string           `json:"text,omitempty"`
	PageCount       int              `json:"page_count"`
	Pages           []PageDetail     `json:"page_details,omitempty"`
	CharacterCount  int              `json:"character_count"`
	WordCount       int              `json:"word_count"`
	TotalImageCount int              `json:"total_image_count"`
	Failed          bool             `json:"extraction_failed"`
	FailureReason   string           `json:"failure_reason,omitempty"`
}

func (r ExtractionResult) HasText() bool {
	return r.CharacterCount > 0
}
