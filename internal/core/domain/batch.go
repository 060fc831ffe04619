package domain

import "time"

type BatchStatus string

const (
	BatchPending    BatchStatus = "pending"
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
)

// BatchFile references one uploaded file belonging to a batch. The ordered
// list of files is fixed at submission time.
type BatchFile struct {
	FileName    string `json:"file_name"`
	StoragePath string `json:"storage_path"`
}

// Batch tracks an asynchronously submitted batch from upload to package.
type Batch struct {
	ID        string      `json:"id"`
	Files     []BatchFile `json:"files"`
	Status    BatchStatus `json:"status"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
