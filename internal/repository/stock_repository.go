package repository

import (
	"context"
	"fmt"
	"time"

	"sentiment-labeler/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PgxPool is the subset of *pgxpool.Pool (and *pgx.Conn) the repositories use.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type StockRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewStockRepository(pool PgxPool, tracer trace.Tracer) *StockRepository {
	return &StockRepository{pool: pool, tracer: tracer}
}

// Deduplicate deletes every stock_data row that is not the survivor of its
// (symbol, timestamp) group under the given policy and returns the number of
// rows removed. Deletion is permanent.
func (r *StockRepository) Deduplicate(ctx context.Context, policy DedupPolicy) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "stock-repo.deduplicate")
	defer span.End()

	query, err := dedupQuery(policy)
	if err != nil {
		return 0, err
	}
	span.SetAttributes(attribute.String("dedup.policy", string(policy)))

	tag, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete duplicate stock rows: %w", err)
	}
	deleted := tag.RowsAffected()
	span.SetAttributes(attribute.Int64("dedup.deleted", deleted))
	return deleted, nil
}

// ListSince returns all price rows with timestamp >= since, in no particular order.
func (r *StockRepository) ListSince(ctx context.Context, since time.Time) ([]domain.StockRecord, error) {
	ctx, span := r.tracer.Start(ctx, "stock-repo.list-since")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT symbol, timestamp, price, volume
		 FROM stock_data
		 WHERE timestamp >= $1`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("query stock data: %w", err)
	}
	defer rows.Close()

	records := make([]domain.StockRecord, 0)
	for rows.Next() {
		var (
			rec    domain.StockRecord
			symbol *string
			ts     *time.Time
		)
		if err := rows.Scan(&symbol, &ts, &rec.Price, &rec.Volume); err != nil {
			return nil, fmt.Errorf("scan stock row: %w", err)
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
		return nil, fmt.Errorf("iterate stock rows: %w", err)
	}
	span.SetAttributes(attribute.Int("stock.rows", len(records)))
	return records, nil
}
