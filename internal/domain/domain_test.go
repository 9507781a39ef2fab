package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestMergedRecordHasSentiment(t *testing.T) {
	score := 0.9
	m := MergedRecord{StockRecord: StockRecord{Symbol: "AAPL", Price: decimal.NewFromInt(100)}}
	if m.HasSentiment() {
		t.Fatal("expected no sentiment on zero value")
	}
	m.SentimentScore = &score
	if !m.HasSentiment() {
		t.Fatal("expected sentiment once score is set")
	}
}

func TestRunReportDuration(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	r := RunReport{StartedAt: start}
	if r.Duration() != 0 {
		t.Fatalf("expected zero duration for unfinished run, got %v", r.Duration())
	}
	r.FinishedAt = start.Add(3 * time.Second)
	if r.Duration() != 3*time.Second {
		t.Fatalf("expected 3s, got %v", r.Duration())
	}
}
