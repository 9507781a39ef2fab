package repository

import (
	"context"
	"fmt"
	"time"

	"sentiment-labeler/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type SentimentRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSentimentRepository(pool PgxPool, tracer trace.Tracer) *SentimentRepository {
	return &SentimentRepository{pool: pool, tracer: tracer}
}

// ListHighConfidenceSince returns sentiment rows with score strictly above
// minScore and timestamp >= since.
func (r *SentimentRepository) ListHighConfidenceSince(ctx context.Context, minScore float64, since time.Time) ([]domain.SentimentRecord, error) {
	ctx, span := r.tracer.Start(ctx, "sentiment-repo.list-high-confidence-since")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT symbol, timestamp, sentiment_score
		 FROM news_sentiment
		 WHERE sentiment_score > $1 AND timestamp >= $2`,
		minScore, since,
	)
	if err != nil {
		return nil, fmt.Errorf("query news sentiment: %w", err)
	}
	defer rows.Close()

	records := make([]domain.SentimentRecord, 0)
	for rows.Next() {
		var (
			rec    domain.SentimentRecord
			symbol *string
			ts     *time.Time
		)
		if err := rows.Scan(&symbol, &ts, &rec.SentimentScore); err != nil {
			return nil, fmt.Errorf("scan sentiment row: %w", err)
		}
		if symbol != nil {
			rec.Symbol = *symbol
		}
		if ts != nil {
			rec.Timestamp = ts.UTC()
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sentiment rows: %w", err)
	}
	span.SetAttributes(attribute.Int("sentiment.rows", len(records)))
	return records, nil
}
