// Package pipeline runs the drafting flow end to end: extract questions,
// retrieve similar past answers, compose drafts, gate low-confidence ones
// and persist the audit trail plus the output documents.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rfp-assist/backend/internal/document"
	"github.com/rfp-assist/backend/internal/draft"
	"github.com/rfp-assist/backend/internal/extract"
	"github.com/rfp-assist/backend/internal/metrics"
	"github.com/rfp-assist/backend/internal/resultlog"
	"github.com/rfp-assist/backend/internal/storage/models"
	"github.com/rfp-assist/backend/internal/storage/sqlite"
	"github.com/rfp-assist/backend/internal/vector"
	"github.com/rfp-assist/backend/pkg/logger"
)

// ErrNoQuestions means the uploaded document contained nothing that reads
// as a question; the caller should treat it as an input format problem.
var ErrNoQuestions = errors.New("no questions found in document")

// errorDraft is what a question's draft becomes when a gateway failed and
// no retrieval happened at all. It is always flagged for review.
const errorDraft = "[! Needs review: draft could not be generated due to a processing error]"

// Embedder is the slice of the LLM gateway the pipeline needs.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Refiner optionally rewrites a composed draft with a language model.
// Failures fall back to the unrefined draft.
type Refiner interface {
	RefineDraft(ctx context.Context, question string, topAnswers []string) (string, error)
}

// Notifier delivers run events to an external endpoint.
type Notifier interface {
	Notify(ctx context.Context, event string, data interface{}) error
}

// ProgressEvent is emitted once per processed question and once at
// completion, for websocket streaming.
type ProgressEvent struct {
	RunID       string  `json:"run_id"`
	Stage       string  `json:"stage"` // "question" or "done"
	Index       int     `json:"index,omitempty"`
	Total       int     `json:"total"`
	Question    string  `json:"question,omitempty"`
	TopScore    float64 `json:"top_score,omitempty"`
	NeedsReview bool    `json:"needs_review,omitempty"`
}

type ProgressFunc func(ProgressEvent)

type Config struct {
	SearchLimit  int
	MinScore     float32
	OutputDir    string
	RefineDrafts bool
}

type Engine struct {
	embedder Embedder
	store    vector.Store
	synth    *draft.Synthesizer
	gate     draft.ReviewGate
	auditLog *resultlog.Logger
	db       *sqlite.Client
	refiner  Refiner
	notifier Notifier
	cfg      Config
}

// RunResult is everything a caller needs to report on a finished run.
type RunResult struct {
	RunID           string               `json:"run_id"`
	SourceFile      string               `json:"source_file"`
	Questions       int                  `json:"questions"`
	NeedsReview     int                  `json:"needs_review"`
	Failed          int                  `json:"failed"`
	Records         []models.DraftRecord `json:"records"`
	DraftPath       string               `json:"draft_path"`
	ReviewDraftPath string               `json:"review_draft_path,omitempty"`
	LogPath         string               `json:"log_path"`
	DurationMS      int64                `json:"duration_ms"`
}

func NewEngine(embedder Embedder, store vector.Store, synth *draft.Synthesizer, gate draft.ReviewGate, auditLog *resultlog.Logger, cfg Config) *Engine {
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 5
	}
	return &Engine{
		embedder: embedder,
		store:    store,
		synth:    synth,
		gate:     gate,
		auditLog: auditLog,
		cfg:      cfg,
	}
}

// WithStorage attaches the sqlite client for draft history records.
func (e *Engine) WithStorage(db *sqlite.Client) *Engine {
	e.db = db
	return e
}

// WithRefiner enables LLM refinement of composed drafts.
func (e *Engine) WithRefiner(r Refiner) *Engine {
	e.refiner = r
	return e
}

// WithNotifier enables webhook delivery of the draft-ready event.
func (e *Engine) WithNotifier(n Notifier) *Engine {
	e.notifier = n
	return e
}

// Run processes a questionnaire file on disk.
func (e *Engine) Run(ctx context.Context, inputPath string) (*RunResult, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return e.RunBytes(ctx, filepath.Base(inputPath), data, nil)
}

// RunBytes processes an in-memory questionnaire (uploads). progress may be
// nil. Questions are handled sequentially; a gateway failure on one question
// is recorded and the run continues, but an audit log or document write
// failure aborts the whole run.
func (e *Engine) RunBytes(ctx context.Context, fileName string, data []byte, progress ProgressFunc) (*RunResult, error) {
	start := time.Now()
	runID := uuid.New().String()

	paragraphs, err := document.ParagraphsFromBytes(fileName, data)
	if err != nil {
		return nil, err
	}

	questions := extract.Questions(paragraphs)
	metrics.QuestionsExtracted.Observe(float64(len(questions)))
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoQuestions, fileName)
	}

	logger.Info("Pipeline run started",
		zap.String("run_id", runID),
		zap.String("file", fileName),
		zap.Int("questions", len(questions)),
	)

	fullDoc := document.NewDraftWriter("RFP Draft Responses")
	reviewDoc := document.NewDraftWriter("Drafts Needing Review")

	result := &RunResult{
		RunID:      runID,
		SourceFile: fileName,
		Questions:  len(questions),
		LogPath:    e.auditLog.Path(),
	}

	for i, question := range questions {
		record, err := e.processQuestion(ctx, runID, question)
		if err != nil {
			// Gateway failure: keep the question in the output, flagged.
			logger.Error("Question failed, continuing",
				zap.String("run_id", runID),
				zap.String("question", question),
				zap.Error(err),
			)
			record = models.DraftRecord{
				ID:          uuid.New().String(),
				RunID:       runID,
				Question:    question,
				Draft:       errorDraft,
				TopScore:    0,
				NeedsReview: true,
				Error:       err.Error(),
				CreatedAt:   time.Now(),
			}
			result.Failed++
			metrics.QuestionsDrafted.WithLabelValues("error").Inc()
		} else {
			metrics.QuestionsDrafted.WithLabelValues("ok").Inc()
			// Only real retrieval scores reach the histogram; failed
			// questions carry a synthetic 0.0.
			metrics.TopScore.Observe(record.TopScore)
		}

		if record.NeedsReview {
			metrics.NeedsReviewTotal.Inc()
			result.NeedsReview++
		}

		if err := e.auditLog.Append(resultlog.Record{
			RunID:       runID,
			Question:    record.Question,
			TopScore:    record.TopScore,
			NeedsReview: record.NeedsReview,
			TopAnswers:  record.TopAnswers,
			Draft:       record.Draft,
			Error:       record.Error,
		}); err != nil {
			return nil, fmt.Errorf("audit log write failed: %w", err)
		}

		if e.db != nil {
			if err := e.db.InsertDraftRecord(&record); err != nil {
				logger.Warn("Failed to store draft record", zap.Error(err))
			}
		}

		fullDoc.AddEntry(i+1, question, record.Draft)
		if record.NeedsReview {
			reviewDoc.AddEntry(i+1, question, record.Draft)
		}

		result.Records = append(result.Records, record)

		if progress != nil {
			progress(ProgressEvent{
				RunID:       runID,
				Stage:       "question",
				Index:       i + 1,
				Total:       len(questions),
				Question:    question,
				TopScore:    record.TopScore,
				NeedsReview: record.NeedsReview,
			})
		}
	}

	shortID := runID[:8]
	result.DraftPath = filepath.Join(e.cfg.OutputDir, fmt.Sprintf("draft_%s.docx", shortID))
	if err := fullDoc.Save(result.DraftPath); err != nil {
		return nil, err
	}
	if reviewDoc.Entries() > 0 {
		result.ReviewDraftPath = filepath.Join(e.cfg.OutputDir, fmt.Sprintf("draft_%s_review.docx", shortID))
		if err := reviewDoc.Save(result.ReviewDraftPath); err != nil {
			return nil, err
		}
	}

	if e.db != nil {
		if err := e.db.InsertDocument(&models.RFPDocument{
			ID:            runID,
			FileName:      fileName,
			Kind:          "questionnaire",
			QuestionCount: len(questions),
			CreatedAt:     time.Now(),
		}); err != nil {
			logger.Warn("Failed to record document", zap.Error(err))
		}
	}

	result.DurationMS = time.Since(start).Milliseconds()
	metrics.PipelineDuration.Observe(time.Since(start).Seconds())

	if progress != nil {
		progress(ProgressEvent{RunID: runID, Stage: "done", Total: len(questions)})
	}

	if e.notifier != nil {
		if err := e.notifier.Notify(ctx, "draft_ready", result); err != nil {
			logger.Warn("Webhook notification failed", zap.Error(err))
		}
	}

	logger.Info("Pipeline run finished",
		zap.String("run_id", runID),
		zap.Int("questions", result.Questions),
		zap.Int("needs_review", result.NeedsReview),
		zap.Int("failed", result.Failed),
		zap.Int64("duration_ms", result.DurationMS),
	)

	return result, nil
}

// processQuestion runs retrieval and synthesis for one question. The error
// return covers gateway failures only; composition and gating are pure and
// cannot fail.
func (e *Engine) processQuestion(ctx context.Context, runID, question string) (models.DraftRecord, error) {
	embedding, err := e.embedder.GenerateEmbedding(ctx, question)
	if err != nil {
		return models.DraftRecord{}, fmt.Errorf("embedding failed: %w", err)
	}

	matches, err := e.store.Search(ctx, embedding, e.cfg.SearchLimit, e.cfg.MinScore)
	if err != nil {
		return models.DraftRecord{}, fmt.Errorf("vector search failed: %w", err)
	}

	composed := e.synth.Compose(matches)
	topScore, needsReview := e.gate.Evaluate(matches)

	draftText := composed.Text
	if e.cfg.RefineDrafts && e.refiner != nil && len(composed.UsedAnswers) > 0 {
		refined, err := e.refiner.RefineDraft(ctx, question, composed.UsedAnswers)
		if err != nil {
			logger.Warn("Draft refinement failed, keeping composed draft",
				zap.String("question", question),
				zap.Error(err),
			)
		} else if refined != "" {
			draftText = refined
		}
	}

	if needsReview {
		draftText = e.gate.Mark(draftText, topScore)
	}

	return models.DraftRecord{
		ID:          uuid.New().String(),
		RunID:       runID,
		Question:    question,
		Draft:       draftText,
		TopScore:    float64(topScore),
		NeedsReview: needsReview,
		TopAnswers:  composed.UsedAnswers,
		CreatedAt:   time.Now(),
	}, nil
}
