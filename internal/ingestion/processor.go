// Package ingestion loads finalized RFP documents back into the vector
// store so future drafts can reuse their approved answers.
package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"github.com/rfp-assist/backend/internal/document"
	"github.com/rfp-assist/backend/internal/extract"
	"github.com/rfp-assist/backend/internal/metrics"
	"github.com/rfp-assist/backend/internal/storage/models"
	"github.com/rfp-assist/backend/internal/storage/sqlite"
	"github.com/rfp-assist/backend/internal/vector"
	"github.com/rfp-assist/backend/pkg/logger"
)

// maxAnswerChars is the chunking threshold: answers longer than this are
// split on sentence boundaries so each point stays within a useful
// embedding window.
const maxAnswerChars = 1000

// Embedder is the slice of the LLM gateway ingestion needs.
type Embedder interface {
	GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

type Processor struct {
	db          *sqlite.Client
	store       vector.Store
	embedder    Embedder
	pastRFPsDir string
}

// Result summarizes one ingestion run.
type Result struct {
	RunID          string   `json:"run_id"`
	SourceFile     string   `json:"source_file"`
	PairsExtracted int      `json:"pairs_extracted"`
	PointsUpserted int      `json:"points_upserted"`
	ArchivedPath   string   `json:"archived_path,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}

func NewProcessor(db *sqlite.Client, store vector.Store, embedder Embedder, pastRFPsDir string) *Processor {
	return &Processor{
		db:          db,
		store:       store,
		embedder:    embedder,
		pastRFPsDir: pastRFPsDir,
	}
}

// Process extracts question/answer pairs from a finalized document, embeds
// the answers and upserts them as points with {question, answer, source}
// payloads. Documents without recognizable pairs fall back to bare
// paragraph ingestion so legacy files are not lost.
func (p *Processor) Process(ctx context.Context, fileName string, data []byte) (*Result, error) {
	runID := uuid.New().String()
	logger.Info("Ingesting finalized document",
		zap.String("run_id", runID),
		zap.String("file", fileName),
	)

	paragraphs, err := document.ParagraphsFromBytes(fileName, data)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	pairs, warnings := extract.QAPairs(paragraphs)
	for _, w := range warnings {
		logger.Warn("Extraction warning", zap.String("file", fileName), zap.String("warning", w))
	}

	if len(pairs) == 0 {
		logger.Warn("No QA pairs found, ingesting bare paragraphs", zap.String("file", fileName))
		for _, para := range paragraphs {
			pairs = append(pairs, extract.QAPair{Answer: para})
		}
	}

	var points []vector.Point
	var texts []string
	for _, pair := range pairs {
		answer := strings.TrimSpace(pair.Answer)
		if answer == "" {
			continue
		}
		for _, chunk := range p.chunkAnswer(answer) {
			points = append(points, vector.Point{
				ID: uuid.NewMD5(uuid.NameSpaceOID, []byte(fileName+"|"+chunk)).String(),
				Payload: map[string]interface{}{
					"question": pair.Question,
					"answer":   chunk,
					"source":   fileName,
				},
			})
			texts = append(texts, chunk)
		}
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("no ingestable content in %s", fileName)
	}

	embeddings, err := p.embedder.GenerateBatchEmbeddings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(embeddings) != len(points) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, expected %d", len(embeddings), len(points))
	}
	for i := range points {
		points[i].Vector = embeddings[i]
	}

	if err := p.store.EnsureCollection(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}
	if err := p.store.Upsert(ctx, points); err != nil {
		return nil, fmt.Errorf("failed to upsert points: %w", err)
	}
	metrics.AnswersIngested.Add(float64(len(points)))

	archivedPath, err := p.archive(fileName, data)
	if err != nil {
		logger.Warn("Failed to archive source file", zap.String("file", fileName), zap.Error(err))
	}

	result := &Result{
		RunID:          runID,
		SourceFile:     fileName,
		PairsExtracted: len(pairs),
		PointsUpserted: len(points),
		ArchivedPath:   archivedPath,
		Warnings:       warnings,
	}

	if p.db != nil {
		if err := p.db.InsertDocument(&models.RFPDocument{
			ID:            runID,
			FileName:      fileName,
			Kind:          "final",
			QuestionCount: len(pairs),
			CreatedAt:     time.Now(),
		}); err != nil {
			logger.Warn("Failed to record document", zap.Error(err))
		}
		if err := p.db.InsertIngestRun(&models.IngestRun{
			ID:             runID,
			SourceFile:     fileName,
			PairsExtracted: len(pairs),
			PointsUpserted: len(points),
			ArchivedPath:   archivedPath,
			CreatedAt:      time.Now(),
		}); err != nil {
			logger.Warn("Failed to record ingest run", zap.Error(err))
		}
	}

	logger.Info("Ingestion complete",
		zap.String("run_id", runID),
		zap.Int("pairs", len(pairs)),
		zap.Int("points", len(points)),
	)

	return result, nil
}

// chunkAnswer splits an oversized answer on sentence boundaries. A single
// sentence longer than the threshold is kept whole rather than cut
// mid-sentence.
func (p *Processor) chunkAnswer(answer string) []string {
	if utf8.RuneCountInString(answer) <= maxAnswerChars {
		return []string{answer}
	}

	doc, err := prose.NewDocument(answer, prose.WithTagging(false), prose.WithExtraction(false))
	if err != nil {
		logger.Warn("Sentence segmentation failed, keeping answer whole", zap.Error(err))
		return []string{answer}
	}

	var chunks []string
	var current strings.Builder
	for _, sent := range doc.Sentences() {
		text := strings.TrimSpace(sent.Text)
		if text == "" {
			continue
		}
		if current.Len() > 0 && utf8.RuneCountInString(current.String())+utf8.RuneCountInString(text)+1 > maxAnswerChars {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(text)
	}
	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	if len(chunks) == 0 {
		return []string{answer}
	}
	return chunks
}

func (p *Processor) archive(fileName string, data []byte) (string, error) {
	if p.pastRFPsDir == "" {
		return "", nil
	}
	if err := os.MkdirAll(p.pastRFPsDir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(p.pastRFPsDir, filepath.Base(fileName))
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", err
	}
	return dst, nil
}
