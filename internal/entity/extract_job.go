package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/tradedoc-extract/constants"
)

// ExtractJob is one journaled pipeline run over a single PDF.
type ExtractJob struct {
	ID           uuid.UUID           `json:"id"`
	SourcePath   string              `json:"source_path"`
	DocType      constants.DocType   `json:"doc_type"`
	Model        string              `json:"model"`
	Status       constants.JobStatus `json:"status"`
	Pages        *int                `json:"pages,omitempty"`
	ErrorMessage *string             `json:"error_message,omitempty"`
	StartedAt    time.Time           `json:"started_at"`
	FinishedAt   *time.Time          `json:"finished_at,omitempty"`
}
