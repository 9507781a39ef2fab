package labeling

import (
	"sort"

	"sentiment-labeler/internal/domain"

	"gonum.org/v1/gonum/stat"
)

// Summarize computes aggregate statistics for a merged table.
func Summarize(merged []domain.MergedRecord) domain.Summary {
	sum := domain.Summary{Rows: len(merged)}
	if len(merged) == 0 {
		return sum
	}

	symbols := make(map[string]struct{})
	labels := make([]float64, 0, len(merged))
	scores := make([]float64, 0, len(merged))
	changes := make([]float64, 0, len(merged))
	for _, m := range merged {
		symbols[m.Symbol] = struct{}{}
		labels = append(labels, float64(m.Label))
		if m.Label == domain.LabelUp {
			sum.UpLabels++
		}
		if m.SentimentScore != nil {
			sum.Matched++
			scores = append(scores, *m.SentimentScore)
		}
		if m.PriceChange.Valid {
			changes = append(changes, m.PriceChange.Decimal.InexactFloat64())
		}
	}

	sum.Symbols = make([]string, 0, len(symbols))
	for s := range symbols {
		sum.Symbols = append(sum.Symbols, s)
	}
	sort.Strings(sum.Symbols)

	sum.UpRatio = stat.Mean(labels, nil)
	if len(scores) > 0 {
		sum.MeanSentiment = stat.Mean(scores, nil)
	}
	if len(changes) > 0 {
		sum.MeanPriceChange = stat.Mean(changes, nil)
	}
	return sum
}
