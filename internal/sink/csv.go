package sink

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"sentiment-labeler/internal/domain"
)

var csvHeader = []string{"symbol", "timestamp", "price", "volume", "sentiment_score", "price_change", "label"}

// CSVWriter writes the labeled table to a fixed file name under dir.
type CSVWriter struct {
	path string
}

func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{path: filepath.Join(dir, LabeledCSVName)}
}

func (w *CSVWriter) Path() string { return w.path }

// Write replaces the CSV with a header row plus one row per merged record.
// Missing sentiment and price change values are written as empty cells.
func (w *CSVWriter) Write(records []domain.MergedRecord) (string, error) {
	err := writeFileAtomic(w.path, func(out io.Writer) error {
		return EncodeCSV(out, records)
	})
	if err != nil {
		return "", fmt.Errorf("write labeled csv: %w", err)
	}
	return w.path, nil
}

func EncodeCSV(out io.Writer, records []domain.MergedRecord) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(csvRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(r domain.MergedRecord) []string {
	sentiment := ""
	if r.SentimentScore != nil {
		sentiment = strconv.FormatFloat(*r.SentimentScore, 'f', -1, 64)
	}
	change := ""
	if r.PriceChange.Valid {
		change = r.PriceChange.Decimal.String()
	}
	return []string{
		r.Symbol,
		r.Timestamp.UTC().Format(time.RFC3339Nano),
		r.Price.String(),
		strconv.FormatInt(r.Volume, 10),
		sentiment,
		change,
		strconv.Itoa(r.Label),
	}
}
