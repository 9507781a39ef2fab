// Package sink persists the labeled table and renders the trend chart.
// Every artifact is written to a temporary file next to its destination and
// renamed into place, so an existing file is either fully replaced or left as is.
package sink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	LabeledCSVName     = "labeled_sentiment_stock.csv"
	LabeledParquetName = "labeled_sentiment_stock.parquet"
	ChartName          = "sentiment_stock_trends.png"
)

func writeFileAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
