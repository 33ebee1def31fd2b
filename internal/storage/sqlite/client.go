package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/rfp-assist/backend/internal/storage/models"
	"github.com/rfp-assist/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rfp_documents (
		id TEXT PRIMARY KEY,
		file_name TEXT NOT NULL,
		kind TEXT NOT NULL,
		question_count INTEGER DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_rfp_documents_kind ON rfp_documents(kind);
	CREATE INDEX IF NOT EXISTS idx_rfp_documents_created ON rfp_documents(created_at);

	CREATE TABLE IF NOT EXISTS draft_records (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		document_id TEXT,
		question TEXT NOT NULL,
		draft TEXT NOT NULL,
		top_score REAL NOT NULL,
		needs_review INTEGER NOT NULL,
		top_answers TEXT,
		error TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (document_id) REFERENCES rfp_documents(id) ON DELETE SET NULL
	);
	CREATE INDEX IF NOT EXISTS idx_draft_records_run ON draft_records(run_id);
	CREATE INDEX IF NOT EXISTS idx_draft_records_review ON draft_records(needs_review);
	CREATE INDEX IF NOT EXISTS idx_draft_records_created ON draft_records(created_at);

	CREATE TABLE IF NOT EXISTS ingest_runs (
		id TEXT PRIMARY KEY,
		source_file TEXT NOT NULL,
		pairs_extracted INTEGER NOT NULL,
		points_upserted INTEGER NOT NULL,
		archived_path TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ingest_runs_created ON ingest_runs(created_at);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertDocument(doc *models.RFPDocument) error {
	query := `
		INSERT INTO rfp_documents (id, file_name, kind, question_count, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			question_count = excluded.question_count
	`

	_, err := c.db.Exec(
		query,
		doc.ID,
		doc.FileName,
		doc.Kind,
		doc.QuestionCount,
		doc.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	logger.Debug("Document recorded", zap.String("doc_id", doc.ID), zap.String("file", doc.FileName))
	return nil
}

func (c *Client) InsertDraftRecord(record *models.DraftRecord) error {
	query := `
		INSERT INTO draft_records (id, run_id, document_id, question, draft, top_score,
			needs_review, top_answers, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	needsReview := 0
	if record.NeedsReview {
		needsReview = 1
	}

	topAnswersJSON, _ := json.Marshal(record.TopAnswers)

	_, err := c.db.Exec(
		query,
		record.ID,
		record.RunID,
		record.DocumentID,
		record.Question,
		record.Draft,
		record.TopScore,
		needsReview,
		string(topAnswersJSON),
		record.Error,
		record.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert draft record: %w", err)
	}

	return nil
}

func (c *Client) GetDraftHistory(limit int) ([]models.DraftRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, run_id, document_id, question, draft, top_score, needs_review,
			top_answers, error, created_at
		FROM draft_records
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := c.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get draft history: %w", err)
	}
	defer rows.Close()

	var records []models.DraftRecord
	for rows.Next() {
		var r models.DraftRecord
		var documentID, topAnswersJSON, errText sql.NullString
		var needsReview int
		var createdAt int64

		err := rows.Scan(&r.ID, &r.RunID, &documentID, &r.Question, &r.Draft,
			&r.TopScore, &needsReview, &topAnswersJSON, &errText, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.DocumentID = documentID.String
		r.NeedsReview = needsReview != 0
		r.Error = errText.String
		if topAnswersJSON.String != "" {
			json.Unmarshal([]byte(topAnswersJSON.String), &r.TopAnswers)
		}
		r.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, r)
	}

	return records, rows.Err()
}

func (c *Client) InsertIngestRun(run *models.IngestRun) error {
	query := `
		INSERT INTO ingest_runs (id, source_file, pairs_extracted, points_upserted, archived_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		run.ID,
		run.SourceFile,
		run.PairsExtracted,
		run.PointsUpserted,
		run.ArchivedPath,
		run.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert ingest run: %w", err)
	}

	logger.Info("Ingest run recorded",
		zap.String("run_id", run.ID),
		zap.String("source", run.SourceFile),
		zap.Int("points", run.PointsUpserted),
	)

	return nil
}
