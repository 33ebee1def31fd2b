package models

import "time"

// RFPDocument is an uploaded questionnaire or a finalized answer document.
type RFPDocument struct {
	ID            string    `json:"id"`
	FileName      string    `json:"file_name"`
	Kind          string    `json:"kind"` // "questionnaire" or "final"
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// DraftRecord is one drafted answer produced by a pipeline run.
type DraftRecord struct {
	ID          string    `json:"id"`
	RunID       string    `json:"run_id"`
	DocumentID  string    `json:"document_id,omitempty"`
	Question    string    `json:"question"`
	Draft       string    `json:"draft"`
	TopScore    float64   `json:"top_score"`
	NeedsReview bool      `json:"needs_review"`
	TopAnswers  []string  `json:"top_answers,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// IngestRun summarizes one finalized-RFP ingestion.
type IngestRun struct {
	ID             string    `json:"id"`
	SourceFile     string    `json:"source_file"`
	PairsExtracted int       `json:"pairs_extracted"`
	PointsUpserted int       `json:"points_upserted"`
	ArchivedPath   string    `json:"archived_path,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
