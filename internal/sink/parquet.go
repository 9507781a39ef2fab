package sink

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"

	"sentiment-labeler/internal/domain"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

type parquetMemFile struct {
	buffer *bytes.Buffer
}

func newParquetMemFile() *parquetMemFile {
	return &parquetMemFile{buffer: &bytes.Buffer{}}
}

func (m *parquetMemFile) Create(string) (source.ParquetFile, error) { return m, nil }
func (m *parquetMemFile) Open(string) (source.ParquetFile, error)   { return m, nil }
func (m *parquetMemFile) Seek(int64, int) (int64, error)            { return int64(m.buffer.Len()), nil }
func (m *parquetMemFile) Read([]byte) (int, error)                  { return 0, io.EOF }
func (m *parquetMemFile) Write(b []byte) (int, error)               { return m.buffer.Write(b) }
func (m *parquetMemFile) Close() error                              { return nil }
func (m *parquetMemFile) Bytes() []byte                             { return m.buffer.Bytes() }

// labeledRecord is the parquet schema of the labeled table. Prices are stored
// as doubles; the CSV keeps the exact decimal text.
type labeledRecord struct {
	Symbol         string   `parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8"`
	Timestamp      int64    `parquet:"name=timestamp, type=INT64, convertedtype=TIMESTAMP_MICROS"`
	Price          float64  `parquet:"name=price, type=DOUBLE"`
	Volume         int64    `parquet:"name=volume, type=INT64"`
	SentimentScore *float64 `parquet:"name=sentiment_score, type=DOUBLE, repetitiontype=OPTIONAL"`
	PriceChange    *float64 `parquet:"name=price_change, type=DOUBLE, repetitiontype=OPTIONAL"`
	Label          int32    `parquet:"name=label, type=INT32"`
}

// ParquetWriter writes the labeled table as a snappy-compressed parquet file.
type ParquetWriter struct {
	path string
}

func NewParquetWriter(dir string) *ParquetWriter {
	return &ParquetWriter{path: filepath.Join(dir, LabeledParquetName)}
}

func (w *ParquetWriter) Path() string { return w.path }

func (w *ParquetWriter) Write(records []domain.MergedRecord) (string, error) {
	data, err := encodeParquet(records)
	if err != nil {
		return "", fmt.Errorf("encode labeled parquet: %w", err)
	}
	err = writeFileAtomic(w.path, func(out io.Writer) error {
		_, err := out.Write(data)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("write labeled parquet: %w", err)
	}
	return w.path, nil
}

func encodeParquet(records []domain.MergedRecord) ([]byte, error) {
	mf := newParquetMemFile()
	pw, err := writer.NewParquetWriter(mf, new(labeledRecord), 1)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, r := range records {
		if err := pw.Write(toLabeledRecord(r)); err != nil {
			return nil, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, err
	}
	return mf.Bytes(), nil
}

func toLabeledRecord(r domain.MergedRecord) labeledRecord {
	rec := labeledRecord{
		Symbol:    r.Symbol,
		Timestamp: r.Timestamp.UTC().UnixMicro(),
		Price:     r.Price.InexactFloat64(),
		Volume:    r.Volume,
		Label:     int32(r.Label),
	}
	if r.SentimentScore != nil {
		v := *r.SentimentScore
		rec.SentimentScore = &v
	}
	if r.PriceChange.Valid {
		v := r.PriceChange.Decimal.InexactFloat64()
		rec.PriceChange = &v
	}
	return rec
}
