// Package milvus implements the vector.Store gateway on Milvus/Zilliz.
//
// Milvus returns L2 distances, not cosine similarities; distances are mapped
// to 1/(1+d) so the review gate threshold means the same thing on every
// backend.
package milvus

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/rfp-assist/backend/internal/vector"
	"github.com/rfp-assist/backend/pkg/logger"
)

type Client struct {
	client     client.Client
	collection string
	dim        int
	normalizer vector.Normalizer
}

type Config struct {
	Endpoint   string
	Collection string
	Dim        int
	Normalizer vector.Normalizer
}

func NewClient(cfg Config) (*Client, error) {
	c, err := client.NewGrpcClient(context.Background(), cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	logger.Info("Milvus client initialized",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("collection", cfg.Collection),
	)

	return &Client{
		client:     c,
		collection: cfg.Collection,
		dim:        cfg.Dim,
		normalizer: cfg.Normalizer,
	}, nil
}

func (m *Client) Close() error {
	return m.client.Close()
}

func (m *Client) EnsureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if has {
		logger.Debug("Collection already exists", zap.String("collection", m.collection))
		return nil
	}

	schema := &entity.Schema{
		CollectionName: m.collection,
		Description:    "Approved RFP answer embeddings",
		Fields: []*entity.Field{
			{
				Name:       "point_id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{"max_length": "64"},
			},
			{
				Name:       "embedding",
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{"dim": fmt.Sprintf("%d", m.dim)},
			},
			{
				Name:       "question",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "2048"},
			},
			{
				Name:       "answer",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "8192"},
			},
			{
				Name:       "source",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "512"},
			},
			{
				Name:     "ingested_at",
				DataType: entity.FieldTypeInt64,
			},
		},
	}

	if err := m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexIvfFlat(entity.L2, 1024)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if err := m.client.CreateIndex(ctx, m.collection, "embedding", idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := m.client.LoadCollection(ctx, m.collection, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	logger.Info("Collection created and loaded", zap.String("collection", m.collection))
	return nil
}

func (m *Client) Upsert(ctx context.Context, points []vector.Point) error {
	if len(points) == 0 {
		return nil
	}

	ids := make([]string, len(points))
	embeddings := make([][]float32, len(points))
	questions := make([]string, len(points))
	answers := make([]string, len(points))
	sources := make([]string, len(points))
	timestamps := make([]int64, len(points))

	now := time.Now().Unix()
	for i, p := range points {
		ids[i] = p.ID
		embeddings[i] = p.Vector
		questions[i] = payloadString(p.Payload, "question")
		answers[i] = payloadString(p.Payload, "answer")
		sources[i] = payloadString(p.Payload, "source")
		timestamps[i] = now
	}

	_, err := m.client.Insert(
		ctx,
		m.collection,
		"",
		entity.NewColumnVarChar("point_id", ids),
		entity.NewColumnFloatVector("embedding", m.dim, embeddings),
		entity.NewColumnVarChar("question", questions),
		entity.NewColumnVarChar("answer", answers),
		entity.NewColumnVarChar("source", sources),
		entity.NewColumnInt64("ingested_at", timestamps),
	)
	if err != nil {
		return fmt.Errorf("failed to insert points: %w", err)
	}

	if err := m.client.Flush(ctx, m.collection, false); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	logger.Info("Points inserted",
		zap.String("collection", m.collection),
		zap.Int("count", len(points)),
	)
	return nil
}

func (m *Client) Search(ctx context.Context, queryVector []float32, limit int, minScore float32) ([]vector.Match, error) {
	if limit <= 0 {
		limit = 5
	}

	sp, _ := entity.NewIndexIvfFlatSearchParam(16)

	searchResult, err := m.client.Search(
		ctx,
		m.collection,
		[]string{},
		"",
		[]string{"question", "answer", "source"},
		[]entity.Vector{entity.FloatVector(queryVector)},
		"embedding",
		entity.L2,
		limit,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	matches := make([]vector.Match, 0, limit)
	for _, sr := range searchResult {
		questionCol := sr.Fields.GetColumn("question")
		answerCol := sr.Fields.GetColumn("answer")
		sourceCol := sr.Fields.GetColumn("source")

		for i := 0; i < sr.ResultCount; i++ {
			score := l2ToSimilarity(sr.Scores[i])
			if score < minScore {
				continue
			}

			payload := map[string]interface{}{}
			if v, err := questionCol.Get(i); err == nil {
				payload["question"] = v
			}
			if v, err := answerCol.Get(i); err == nil {
				payload["answer"] = v
			}
			if v, err := sourceCol.Get(i); err == nil {
				payload["source"] = v
			}

			matches = append(matches, m.normalizer.Normalize(score, payload))
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	logger.Debug("Vector search completed",
		zap.Int("limit", limit),
		zap.Int("results", len(matches)),
	)
	return matches, nil
}

// l2ToSimilarity maps an L2 distance into (0,1], monotonically decreasing.
func l2ToSimilarity(distance float32) float32 {
	return 1.0 / (1.0 + distance)
}

func payloadString(payload map[string]interface{}, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}
