package domain

import "time"

type DocumentStatus string

const (
	StatusProcessed DocumentStatus = "processed"
	StatusFailed    DocumentStatus = "failed"
	StatusCancelled DocumentStatus = "cancelled"
)

type AggregateStatus string

const (
	AggregateCompleted AggregateStatus = "COMPLETED"
	AggregatePartial   AggregateStatus = "PARTIAL"
)

// FieldServiceState distinguishes "the extraction service was never
// configured" from "it was called and failed" at package level, so operators
// can tell a missing credential apart from low-confidence output.
type FieldServiceState string

const (
	FieldServiceOK           FieldServiceState = "OK"
	FieldServiceUnavailable  FieldServiceState = "UNAVAILABLE"
	FieldServiceUnconfigured FieldServiceState = "UNCONFIGURED"
)

// DocumentResult is a document's terminal record within a package. Every
// accepted document produces exactly one: either a full pipeline result ending
// in a RoutingDecision, or an explicit failure/cancellation marker.
type DocumentResult struct {
	Document   Document          `json:"document"`
	Status     DocumentStatus    `json:"status"`
	Extraction *ExtractionResult `json:"extraction,omitempty"`
	KYCRecord  *KYCRecord        `json:"kyc_record"`
	Quality    *QualityReport    `json:"quality,omitempty"`
	Risk       *RiskProfile      `json:"risk,omitempty"`
	Routing    *RoutingDecision  `json:"routing,omitempty"`
	Error      string            `json:"error,omitempty"`
}

type AuditEntry struct {
	DocumentID string    `json:"document_id"`
	Stage      string    `json:"stage"`
	Outcome    string    `json:"outcome"`
	Detail     string    `json:"detail,omitempty"`
	At         time.Time `json:"at"`
}

type FileCategoryCounts struct {
	Documents int `json:"documents"`
	Images    int `json:"images"`
	Other     int `json:"other"`
}

// ProcessingPackage aggregates a batch. Immutable once emitted by the
// finalizer.
type ProcessingPackage struct {
	PackageID         string             `json:"package_id"`
	CreatedAt         time.Time          `json:"created_at"`
	TotalFiles        int                `json:"total_files"`
	FileCategories    FileCategoryCounts `json:"file_categories"`
	Results           []DocumentResult   `json:"results"`
	AggregateStatus   AggregateStatus    `json:"aggregate_status"`
	FieldServiceState FieldServiceState  `json:"field_service_state"`
	AuditEntries      []AuditEntry       `json:"audit_entries,omitempty"`
	StageDurationsMS  map[string]float64 `json:"metrics"`
}
