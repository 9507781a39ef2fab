package sink

import (
	"time"

	"sentiment-labeler/internal/domain"

	"github.com/shopspring/decimal"
)

var base = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func stockAt(symbol string, minute int, price string, volume int64) domain.StockRecord {
	return domain.StockRecord{
		Symbol:    symbol,
		Timestamp: base.Add(time.Duration(minute) * time.Minute),
		Price:     decimal.RequireFromString(price),
		Volume:    volume,
	}
}

func sentimentAt(symbol string, minute int, score float64) domain.SentimentRecord {
	return domain.SentimentRecord{
		Symbol:         symbol,
		Timestamp:      base.Add(time.Duration(minute) * time.Minute),
		SentimentScore: score,
	}
}

func ptr[T any](v T) *T { return &v }

func labeledRows() []domain.MergedRecord {
	return []domain.MergedRecord{
		{
			StockRecord:    stockAt("AAPL", 0, "100.00", 1000),
			SentimentScore: ptr(0.9),
			PriceChange:    decimal.NewNullDecimal(decimal.RequireFromString("2.00")),
			Label:          domain.LabelUp,
		},
		{
			StockRecord: stockAt("AAPL", 5, "102.00", 1200),
			Label:       domain.LabelDown,
		},
	}
}
