package sink

import (
	"errors"
	"image/png"
	"os"
	"testing"

	"sentiment-labeler/internal/domain"

	"github.com/wcharczuk/go-chart/v2"
)

func TestChartRendererWritesPNG(t *testing.T) {
	dir := t.TempDir()
	r := NewChartRenderer(dir, 800, 400)

	stocks := []domain.StockRecord{
		stockAt("AAPL", 5, "102", 1),
		stockAt("MSFT", 1, "300", 1),
		stockAt("AAPL", 0, "100", 1),
		stockAt("MSFT", 6, "305", 1),
	}
	sentiments := []domain.SentimentRecord{sentimentAt("AAPL", 2, 0.9), sentimentAt("MSFT", 4, 0.85)}

	path, err := r.Render(stocks, sentiments)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open chart: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("chart is not a png: %v", err)
	}
	if cfg.Width != 800 || cfg.Height != 400 {
		t.Fatalf("chart size = %dx%d, want 800x400", cfg.Width, cfg.Height)
	}
}

func TestChartRendererSinglePoint(t *testing.T) {
	r := NewChartRenderer(t.TempDir(), 0, 0)
	if r.width != DefaultChartWidth || r.height != DefaultChartHeight {
		t.Fatalf("defaults not applied: %dx%d", r.width, r.height)
	}
	_, err := r.Render(
		[]domain.StockRecord{stockAt("AAPL", 0, "100", 1)},
		[]domain.SentimentRecord{sentimentAt("AAPL", 0, 0.9)},
	)
	if err != nil {
		t.Fatalf("single point chart failed: %v", err)
	}
}

func TestChartBuildSeries(t *testing.T) {
	r := NewChartRenderer(t.TempDir(), 0, 0)
	stocks := []domain.StockRecord{
		stockAt("MSFT", 3, "300", 1),
		stockAt("AAPL", 2, "101", 1),
		stockAt("AAPL", 0, "100", 1),
	}
	sentiments := []domain.SentimentRecord{sentimentAt("AAPL", 4, 0.95), sentimentAt("AAPL", 1, 0.85)}

	graph, err := r.build(stocks, sentiments)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(graph.Series) != 3 {
		t.Fatalf("expected two price lines and one scatter, got %d series", len(graph.Series))
	}

	aapl := graph.Series[0].(chart.TimeSeries)
	if aapl.Name != "AAPL price" || !aapl.XValues[0].Equal(base) || aapl.YValues[1] != 101 {
		t.Fatalf("AAPL line not time ordered: %+v", aapl)
	}
	scatter := graph.Series[2].(chart.TimeSeries)
	if scatter.YAxis != chart.YAxisSecondary {
		t.Fatal("sentiment must use the secondary axis")
	}
	if scatter.YValues[0] != 0.85 || scatter.YValues[1] != 0.95 {
		t.Fatalf("sentiment points not time ordered: %v", scatter.YValues)
	}
	if sentiments[0].SentimentScore != 0.95 {
		t.Fatal("input slice was reordered")
	}
}

func TestChartRendererRejectsEmptyInput(t *testing.T) {
	_, err := NewChartRenderer(t.TempDir(), 0, 0).Render(nil, nil)
	if !errors.Is(err, ErrNothingToPlot) {
		t.Fatalf("expected ErrNothingToPlot, got %v", err)
	}
}

func TestAxisRangeNeverCollapses(t *testing.T) {
	b := newBounds()
	b.add(100)
	r := b.axisRange()
	if r.Max-r.Min <= 0 {
		t.Fatalf("flat range collapsed: %+v", r)
	}

	empty := newBounds().axisRange()
	if empty.Min != 0 || empty.Max != 1 {
		t.Fatalf("empty range = %+v", empty)
	}
}
