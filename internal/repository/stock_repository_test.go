package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

func ptr[T any](v T) *T { return &v }

func TestDeduplicateReturnsRowsAffected(t *testing.T) {
	pool := &fakePool{execTag: pgconn.NewCommandTag("DELETE 3")}
	repo := NewStockRepository(pool, testTracer)

	deleted, err := repo.Deduplicate(context.Background(), DedupFirstStored)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 deleted rows, got %d", deleted)
	}
	if len(pool.execSQL) != 1 || !strings.Contains(pool.execSQL[0], "DELETE FROM stock_data") {
		t.Fatalf("unexpected statements: %v", pool.execSQL)
	}
}

func TestDeduplicateUnknownPolicyDoesNotTouchStore(t *testing.T) {
	pool := &fakePool{}
	repo := NewStockRepository(pool, testTracer)

	if _, err := repo.Deduplicate(context.Background(), DedupPolicy("random")); err == nil {
		t.Fatal("expected error for unknown policy")
	}
	if len(pool.execSQL) != 0 {
		t.Fatalf("no statement should run, got %v", pool.execSQL)
	}
}

func TestDeduplicateWrapsStoreError(t *testing.T) {
	storeErr := errors.New("connection reset")
	repo := NewStockRepository(&fakePool{execErr: storeErr}, testTracer)

	_, err := repo.Deduplicate(context.Background(), DedupLastStored)
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestListSinceScansRows(t *testing.T) {
	ts := time.Date(2026, 3, 2, 10, 0, 0, 0, time.FixedZone("EST", -5*3600))
	pool := &fakePool{rows: [][]any{
		{ptr("AAPL"), ptr(ts), decimal.RequireFromString("100.25"), int64(1000)},
		{nil, nil, decimal.NewFromInt(5), int64(1)},
	}}
	repo := NewStockRepository(pool, testTracer)
	since := ts.Add(-24 * time.Hour)

	records, err := repo.ListSince(context.Background(), since)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	got := records[0]
	if got.Symbol != "AAPL" || !got.Price.Equal(decimal.RequireFromString("100.25")) || got.Volume != 1000 {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.Timestamp.Location() != time.UTC || !got.Timestamp.Equal(ts) {
		t.Fatalf("expected timestamp normalized to UTC, got %v", got.Timestamp)
	}
	if !records[1].Timestamp.IsZero() || records[1].Symbol != "" {
		t.Fatalf("null columns should map to zero values, got %+v", records[1])
	}
	if len(pool.args) != 1 || pool.args[0] != since {
		t.Fatalf("expected window start as only argument, got %v", pool.args)
	}
	if !strings.Contains(pool.querySQL, "timestamp >= $1") {
		t.Fatalf("unexpected query: %s", pool.querySQL)
	}
}

func TestListSinceEmptyIsNotAnError(t *testing.T) {
	repo := NewStockRepository(&fakePool{}, testTracer)
	records, err := repo.ListSince(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", records)
	}
}

func TestListSinceErrors(t *testing.T) {
	queryErr := errors.New("relation does not exist")
	repo := NewStockRepository(&fakePool{queryErr: queryErr}, testTracer)
	if _, err := repo.ListSince(context.Background(), time.Now()); !errors.Is(err, queryErr) {
		t.Fatalf("expected query error, got %v", err)
	}

	scanErr := errors.New("cannot scan")
	repo = NewStockRepository(&fakePool{rows: [][]any{{ptr("A"), nil, decimal.Zero, int64(0)}}, scanErr: scanErr}, testTracer)
	if _, err := repo.ListSince(context.Background(), time.Now()); !errors.Is(err, scanErr) {
		t.Fatalf("expected scan error, got %v", err)
	}
}
