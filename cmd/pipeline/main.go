// Command pipeline runs the drafting flow once over a questionnaire file
// and prints the run summary. It shares configuration with the API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/rfp-assist/backend/internal/draft"
	"github.com/rfp-assist/backend/internal/llm"
	"github.com/rfp-assist/backend/internal/metrics"
	"github.com/rfp-assist/backend/internal/pipeline"
	"github.com/rfp-assist/backend/internal/resultlog"
	"github.com/rfp-assist/backend/internal/vector"
	"github.com/rfp-assist/backend/internal/vector/milvus"
	"github.com/rfp-assist/backend/internal/vector/qdrant"
	"github.com/rfp-assist/backend/pkg/config"
	appLogger "github.com/rfp-assist/backend/pkg/logger"
)

func main() {
	rfpPath := flag.String("rfp", "", "path to the RFP questionnaire (.docx, .txt or .html)")
	refine := flag.Bool("refine", false, "refine composed drafts with the language model")
	flag.Parse()

	if *rfpPath == "" {
		fmt.Fprintln(os.Stderr, "usage: pipeline -rfp <path> [-refine]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	metrics.Init()

	store, err := newVectorStore(cfg)
	if err != nil {
		appLogger.Fatal("Failed to create vector store", zap.Error(err))
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if err := store.EnsureCollection(ctx); err != nil {
		appLogger.Fatal("Failed to ensure collection", zap.Error(err))
	}

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.EmbeddingModel,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
	)

	auditLog, err := resultlog.New(cfg.Pipeline.LogDir)
	if err != nil {
		appLogger.Fatal("Failed to create audit log", zap.Error(err))
	}

	synth := draft.NewSynthesizer(draft.Config{
		QuestionPrefixes: cfg.Drafting.QuestionPrefixes,
		MinAnswerLen:     cfg.Drafting.MinAnswerLen,
		MaxQuestionMarks: cfg.Drafting.MaxQuestionMarks,
	})
	gate := draft.NewReviewGate(cfg.Pipeline.ReviewScoreThreshold)

	engine := pipeline.NewEngine(llmClient, store, synth, gate, auditLog, pipeline.Config{
		SearchLimit:  cfg.Pipeline.SearchLimit,
		MinScore:     cfg.Pipeline.MinScore,
		OutputDir:    cfg.Pipeline.OutputDir,
		RefineDrafts: *refine || cfg.LLM.RefineDrafts,
	})
	if *refine || cfg.LLM.RefineDrafts {
		engine = engine.WithRefiner(llmClient)
	}

	result, err := engine.Run(ctx, *rfpPath)
	if err != nil {
		appLogger.Fatal("Pipeline run failed", zap.Error(err))
	}

	fmt.Printf("Run %s: %d questions, %d flagged for review, %d failed\n",
		result.RunID, result.Questions, result.NeedsReview, result.Failed)
	fmt.Printf("Draft:  %s\n", result.DraftPath)
	if result.ReviewDraftPath != "" {
		fmt.Printf("Review: %s\n", result.ReviewDraftPath)
	}
	fmt.Printf("Log:    %s\n", result.LogPath)
}

func newVectorStore(cfg *config.Config) (vector.Store, error) {
	normalizer := vector.Normalizer{
		AnswerFields: cfg.Drafting.AnswerFields,
		SourceFields: cfg.Drafting.SourceFields,
	}

	switch cfg.Vector.Backend {
	case "qdrant", "":
		return qdrant.NewClient(qdrant.Config{
			Host:       cfg.Qdrant.Host,
			Port:       cfg.Qdrant.Port,
			APIKey:     cfg.Qdrant.APIKey,
			UseTLS:     cfg.Qdrant.UseTLS,
			Collection: cfg.Vector.Collection,
			Dim:        cfg.Vector.Dim,
			Normalizer: normalizer,
		})
	case "milvus":
		return milvus.NewClient(milvus.Config{
			Endpoint:   cfg.Milvus.Endpoint,
			Collection: cfg.Vector.Collection,
			Dim:        cfg.Vector.Dim,
			Normalizer: normalizer,
		})
	default:
		return nil, fmt.Errorf("unknown vector backend: %s", cfg.Vector.Backend)
	}
}
