package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockRecord is a single price observation from the stock_data table.
type StockRecord struct {
	Symbol    string          `json:"symbol"`
	Timestamp time.Time       `json:"timestamp"`
	Price     decimal.Decimal `json:"price"`
	Volume    int64           `json:"volume"`
}

// SentimentRecord is a scored news item from the news_sentiment table.
type SentimentRecord struct {
	Symbol         string    `json:"symbol"`
	Timestamp      time.Time `json:"timestamp"`
	SentimentScore float64   `json:"sentiment_score"`
}

// MergedRecord is a StockRecord joined to its nearest sentiment score and
// labeled with the direction of the next price move for the same symbol.
type MergedRecord struct {
	StockRecord
	SentimentScore *float64            `json:"sentiment_score"`
	PriceChange    decimal.NullDecimal `json:"price_change"`
	Label          int                 `json:"label"`
}

// HasSentiment reports whether the as-of join found a sentiment row.
func (m MergedRecord) HasSentiment() bool {
	return m.SentimentScore != nil
}

const (
	LabelDown = 0
	LabelUp   = 1
)
