package sink

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"time"

	"sentiment-labeler/internal/domain"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	DefaultChartWidth  = 1000
	DefaultChartHeight = 600
)

var (
	priceColor     = drawing.Color{R: 31, G: 119, B: 180, A: 255}
	sentimentColor = drawing.Color{R: 255, G: 127, B: 14, A: 255}

	symbolPalette = []drawing.Color{
		priceColor,
		{R: 44, G: 160, B: 44, A: 255},
		{R: 214, G: 39, B: 40, A: 255},
		{R: 148, G: 103, B: 189, A: 255},
		{R: 140, G: 86, B: 75, A: 255},
		{R: 127, G: 127, B: 127, A: 255},
	}
)

var ErrNothingToPlot = errors.New("no stock or sentiment points to plot")

// ChartRenderer draws stock price lines against a sentiment scatter that
// shares the time axis and uses its own vertical scale.
type ChartRenderer struct {
	path   string
	width  int
	height int
}

func NewChartRenderer(dir string, width, height int) *ChartRenderer {
	if width <= 0 {
		width = DefaultChartWidth
	}
	if height <= 0 {
		height = DefaultChartHeight
	}
	return &ChartRenderer{path: filepath.Join(dir, ChartName), width: width, height: height}
}

func (r *ChartRenderer) Path() string { return r.path }

func (r *ChartRenderer) Render(stocks []domain.StockRecord, sentiments []domain.SentimentRecord) (string, error) {
	graph, err := r.build(stocks, sentiments)
	if err != nil {
		return "", err
	}
	err = writeFileAtomic(r.path, func(out io.Writer) error {
		return graph.Render(chart.PNG, out)
	})
	if err != nil {
		return "", fmt.Errorf("render trend chart: %w", err)
	}
	return r.path, nil
}

func (r *ChartRenderer) build(stocks []domain.StockRecord, sentiments []domain.SentimentRecord) (*chart.Chart, error) {
	if len(stocks) == 0 && len(sentiments) == 0 {
		return nil, ErrNothingToPlot
	}

	var (
		series      []chart.Series
		minT, maxT  time.Time
		priceBounds = newBounds()
		scoreBounds = newBounds()
	)
	observe := func(ts time.Time) {
		if minT.IsZero() || ts.Before(minT) {
			minT = ts
		}
		if maxT.IsZero() || ts.After(maxT) {
			maxT = ts
		}
	}

	for i, group := range groupStocks(stocks) {
		s := chart.TimeSeries{
			Name: group.symbol + " price",
			Style: chart.Style{
				StrokeColor: symbolPalette[i%len(symbolPalette)],
				StrokeWidth: 2,
			},
		}
		for _, rec := range group.records {
			price := rec.Price.InexactFloat64()
			s.XValues = append(s.XValues, rec.Timestamp)
			s.YValues = append(s.YValues, price)
			priceBounds.add(price)
			observe(rec.Timestamp)
		}
		series = append(series, s)
	}

	if len(sentiments) > 0 {
		sorted := append([]domain.SentimentRecord(nil), sentiments...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })
		s := chart.TimeSeries{
			Name:  "Sentiment Score",
			YAxis: chart.YAxisSecondary,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    4,
				DotColor:    sentimentColor,
			},
		}
		for _, rec := range sorted {
			s.XValues = append(s.XValues, rec.Timestamp)
			s.YValues = append(s.YValues, rec.SentimentScore)
			scoreBounds.add(rec.SentimentScore)
			observe(rec.Timestamp)
		}
		series = append(series, s)
	}

	xMin, xMax := chart.TimeToFloat64(minT), chart.TimeToFloat64(maxT)
	if xMin == xMax {
		xMin -= float64(time.Minute)
		xMax += float64(time.Minute)
	}

	graph := &chart.Chart{
		Title:  "Stock Price and Sentiment Trends",
		Width:  r.width,
		Height: r.height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           "Time",
			ValueFormatter: chart.TimeMinuteValueFormatter,
			Range:          &chart.ContinuousRange{Min: xMin, Max: xMax},
		},
		YAxis: chart.YAxis{
			Name:      "Stock Price",
			NameStyle: chart.Style{FontColor: priceColor},
			Style:     chart.Style{FontColor: priceColor},
			Range:     priceBounds.axisRange(),
		},
		YAxisSecondary: chart.YAxis{
			Name:      "Sentiment Score",
			NameStyle: chart.Style{FontColor: sentimentColor},
			Style:     chart.Style{FontColor: sentimentColor},
			Range:     scoreBounds.axisRange(),
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(graph)}
	return graph, nil
}

type stockGroup struct {
	symbol  string
	records []domain.StockRecord
}

// groupStocks splits stocks by symbol, time-ordered within each symbol, with
// symbols in lexical order so colors stay stable between runs.
func groupStocks(stocks []domain.StockRecord) []stockGroup {
	bySymbol := make(map[string][]domain.StockRecord)
	for _, s := range stocks {
		bySymbol[s.Symbol] = append(bySymbol[s.Symbol], s)
	}
	symbols := make([]string, 0, len(bySymbol))
	for sym := range bySymbol {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	groups := make([]stockGroup, 0, len(symbols))
	for _, sym := range symbols {
		recs := bySymbol[sym]
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Timestamp.Before(recs[j].Timestamp) })
		groups = append(groups, stockGroup{symbol: sym, records: recs})
	}
	return groups
}

type bounds struct {
	min, max float64
}

func newBounds() *bounds {
	return &bounds{min: math.Inf(1), max: math.Inf(-1)}
}

func (b *bounds) add(v float64) {
	b.min = math.Min(b.min, v)
	b.max = math.Max(b.max, v)
}

// axisRange pads the observed span by 5% and widens a flat or empty span so
// the axis never collapses to zero height.
func (b *bounds) axisRange() *chart.ContinuousRange {
	if math.IsInf(b.min, 1) {
		return &chart.ContinuousRange{Min: 0, Max: 1}
	}
	span := b.max - b.min
	pad := span * 0.05
	if span == 0 {
		pad = math.Max(math.Abs(b.max)*0.05, 0.5)
	}
	return &chart.ContinuousRange{Min: b.min - pad, Max: b.max + pad}
}
