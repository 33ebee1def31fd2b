// Package qdrant implements the vector.Store gateway on Qdrant's native
// gRPC client (port 6334, not the 6333 REST port).
package qdrant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/rfp-assist/backend/internal/vector"
	"github.com/rfp-assist/backend/pkg/logger"
	"github.com/rfp-assist/backend/pkg/retry"
)

type Client struct {
	client      *qdrant.Client
	collection  string
	dim         int
	normalizer  vector.Normalizer
	retryConfig retry.Config
}

type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	Dim        int
	Normalizer vector.Normalizer
}

func NewClient(cfg Config) (*Client, error) {
	c, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := c.HealthCheck(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("qdrant health check failed: %w", err)
	}

	logger.Info("Qdrant client initialized",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("collection", cfg.Collection),
	)

	return &Client{
		client:     c,
		collection: cfg.Collection,
		dim:        cfg.Dim,
		normalizer: cfg.Normalizer,
		retryConfig: retry.Config{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2.0,
			Logger:       logger.GetLogger(),
		},
	}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnsureCollection creates the collection with cosine distance if it does
// not exist yet. Existing collections are left untouched.
func (c *Client) EnsureCollection(ctx context.Context) error {
	exists, err := c.client.CollectionExists(ctx, c.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", c.collection, err)
	}
	if exists {
		logger.Debug("Collection already exists", zap.String("collection", c.collection))
		return nil
	}

	err = c.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: c.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(c.dim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", c.collection, err)
	}

	logger.Info("Collection created",
		zap.String("collection", c.collection),
		zap.Int("dim", c.dim),
	)
	return nil
}

func (c *Client) Upsert(ctx context.Context, points []vector.Point) error {
	if len(points) == 0 {
		return nil
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		id := p.ID
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(id),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: toPayload(p.Payload),
		}
	}

	err := retry.Do(ctx, c.retryConfig, func() error {
		_, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: c.collection,
			Points:         qdrantPoints,
			Wait:           qdrant.PtrOf(true),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %d points: %w", len(points), err)
	}

	logger.Info("Points upserted",
		zap.String("collection", c.collection),
		zap.Int("count", len(points)),
	)
	return nil
}

func (c *Client) Search(ctx context.Context, queryVector []float32, limit int, minScore float32) ([]vector.Match, error) {
	if limit <= 0 {
		limit = 5
	}

	var scored []*qdrant.ScoredPoint
	err := retry.Do(ctx, c.retryConfig, func() error {
		res, err := c.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: c.collection,
			Query:          qdrant.NewQuery(queryVector...),
			Limit:          qdrant.PtrOf(uint64(limit)),
			WithPayload:    qdrant.NewWithPayload(true),
			ScoreThreshold: qdrant.PtrOf(minScore),
		})
		if err != nil {
			return err
		}
		scored = res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search collection %s: %w", c.collection, err)
	}

	matches := make([]vector.Match, 0, len(scored))
	for _, point := range scored {
		matches = append(matches, c.normalizer.Normalize(point.Score, fromPayload(point.Payload)))
	}

	logger.Debug("Vector search completed",
		zap.Int("limit", limit),
		zap.Int("results", len(matches)),
	)
	return matches, nil
}

func toPayload(fields map[string]interface{}) map[string]*qdrant.Value {
	payload := make(map[string]*qdrant.Value, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case string:
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: val}}
		case int:
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(val)}}
		case int64:
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: val}}
		case float64:
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: val}}
		case bool:
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: val}}
		}
	}
	return payload
}

func fromPayload(payload map[string]*qdrant.Value) map[string]interface{} {
	fields := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		switch val := v.Kind.(type) {
		case *qdrant.Value_StringValue:
			fields[k] = val.StringValue
		case *qdrant.Value_IntegerValue:
			fields[k] = val.IntegerValue
		case *qdrant.Value_DoubleValue:
			fields[k] = val.DoubleValue
		case *qdrant.Value_BoolValue:
			fields[k] = val.BoolValue
		}
	}
	return fields
}
