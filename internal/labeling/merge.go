// Package labeling joins price rows to news sentiment and derives the
// forward-looking up/down label used as a training target.
package labeling

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"sentiment-labeler/internal/domain"
)

// ErrMalformedRecord marks input rows that cannot be placed on the time axis.
var ErrMalformedRecord = errors.New("malformed record")

// Merge performs a per-symbol as-of nearest join of sentiment onto stock rows
// and labels each row with the direction of the next price for its symbol.
//
// Every stock row is kept. A row whose symbol has no sentiment gets a nil
// score. Equidistant sentiment rows resolve to the earlier one. The last row
// of each symbol has no price change and is labeled down.
func Merge(stocks []domain.StockRecord, sentiments []domain.SentimentRecord) ([]domain.MergedRecord, error) {
	if err := validateStocks(stocks); err != nil {
		return nil, err
	}
	if err := validateSentiments(sentiments); err != nil {
		return nil, err
	}

	sortedStocks := append([]domain.StockRecord(nil), stocks...)
	sort.SliceStable(sortedStocks, func(i, j int) bool {
		return sortedStocks[i].Timestamp.Before(sortedStocks[j].Timestamp)
	})

	index := indexSentiment(sentiments)

	merged := make([]domain.MergedRecord, len(sortedStocks))
	for i, s := range sortedStocks {
		merged[i] = domain.MergedRecord{StockRecord: s}
		if score, ok := index.nearest(s.Symbol, s.Timestamp); ok {
			v := score
			merged[i].SentimentScore = &v
		}
	}

	applyLabels(merged)
	return merged, nil
}

func applyLabels(merged []domain.MergedRecord) {
	// merged is time-ordered, so the previous row seen for a symbol is its
	// chronological predecessor.
	last := make(map[string]int, 8)
	for i := range merged {
		sym := merged[i].Symbol
		if prev, ok := last[sym]; ok {
			merged[prev].PriceChange.Decimal = merged[i].Price.Sub(merged[prev].Price)
			merged[prev].PriceChange.Valid = true
		}
		last[sym] = i
	}
	for i := range merged {
		merged[i].Label = Label(merged[i])
	}
}

// Label returns 1 when the next price for the symbol is higher, else 0.
// A missing price change (series tail) is labeled 0.
func Label(m domain.MergedRecord) int {
	if m.PriceChange.Valid && m.PriceChange.Decimal.IsPositive() {
		return domain.LabelUp
	}
	return domain.LabelDown
}

type sentimentPoint struct {
	at    time.Time
	score float64
}

type sentimentIndex map[string][]sentimentPoint

func indexSentiment(in []domain.SentimentRecord) sentimentIndex {
	idx := make(sentimentIndex)
	for _, s := range in {
		idx[s.Symbol] = append(idx[s.Symbol], sentimentPoint{at: s.Timestamp, score: s.SentimentScore})
	}
	for sym := range idx {
		points := idx[sym]
		sort.SliceStable(points, func(i, j int) bool { return points[i].at.Before(points[j].at) })
	}
	return idx
}

func (idx sentimentIndex) nearest(symbol string, at time.Time) (float64, bool) {
	points := idx[symbol]
	if len(points) == 0 {
		return 0, false
	}

	// first point at or after the target
	after := sort.Search(len(points), func(i int) bool { return !points[i].at.Before(at) })
	switch {
	case after == 0:
		return points[0].score, true
	case after == len(points):
		return points[len(points)-1].score, true
	}

	before := points[after-1]
	next := points[after]
	if next.at.Sub(at) < at.Sub(before.at) {
		return next.score, true
	}
	return before.score, true
}

func validateStocks(in []domain.StockRecord) error {
	for i, s := range in {
		if s.Symbol == "" {
			return fmt.Errorf("%w: stock row %d has no symbol", ErrMalformedRecord, i)
		}
		if s.Timestamp.IsZero() {
			return fmt.Errorf("%w: stock row %d (%s) has no timestamp", ErrMalformedRecord, i, s.Symbol)
		}
	}
	return nil
}

func validateSentiments(in []domain.SentimentRecord) error {
	for i, s := range in {
		if s.Symbol == "" {
			return fmt.Errorf("%w: sentiment row %d has no symbol", ErrMalformedRecord, i)
		}
		if s.Timestamp.IsZero() {
			return fmt.Errorf("%w: sentiment row %d (%s) has no timestamp", ErrMalformedRecord, i, s.Symbol)
		}
	}
	return nil
}
