package job

import (
	"context"
	"errors"
	"time"

	"sentiment-labeler/internal/domain"
	"sentiment-labeler/internal/labeling"
	"sentiment-labeler/internal/logger"
	"sentiment-labeler/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type StockStore interface {
	Deduplicate(ctx context.Context, policy repository.DedupPolicy) (int64, error)
	ListSince(ctx context.Context, since time.Time) ([]domain.StockRecord, error)
}

type SentimentStore interface {
	ListHighConfidenceSince(ctx context.Context, minScore float64, since time.Time) ([]domain.SentimentRecord, error)
}

type TableWriter interface {
	Write(records []domain.MergedRecord) (string, error)
}

type ChartSink interface {
	Render(stocks []domain.StockRecord, sentiments []domain.SentimentRecord) (string, error)
}

type ArtifactExporter interface {
	Export(ctx context.Context, runDate time.Time, files []string) ([]string, error)
}

// Reporter receives the final report of every run. Failures are logged and
// never change the outcome.
type Reporter interface {
	Report(ctx context.Context, report domain.RunReport) error
}

type Options struct {
	Lookback           time.Duration
	SentimentThreshold float64
	DedupPolicy        repository.DedupPolicy
}

// LabelingJob runs dedup, read, merge and sink once, in that order.
type LabelingJob struct {
	tracer     trace.Tracer
	stocks     StockStore
	sentiments SentimentStore
	opts       Options

	writers   []TableWriter
	chart     ChartSink
	exporter  ArtifactExporter
	reporters []Reporter

	now      func() time.Time
	newRunID func() string
	log      *logger.Log
}

func NewLabelingJob(tracer trace.Tracer, stocks StockStore, sentiments SentimentStore, opts Options) *LabelingJob {
	if opts.Lookback <= 0 {
		opts.Lookback = 24 * time.Hour
	}
	if opts.DedupPolicy == "" {
		opts.DedupPolicy = repository.DefaultDedupPolicy
	}
	return &LabelingJob{
		tracer:     tracer,
		stocks:     stocks,
		sentiments: sentiments,
		opts:       opts,
		now:        time.Now,
		newRunID:   uuid.NewString,
		log:        logger.GetLogger(),
	}
}

func (j *LabelingJob) WithTableWriters(writers ...TableWriter) *LabelingJob {
	j.writers = append(j.writers, writers...)
	return j
}

func (j *LabelingJob) WithChart(chart ChartSink) *LabelingJob {
	j.chart = chart
	return j
}

func (j *LabelingJob) WithExporter(exporter ArtifactExporter) *LabelingJob {
	j.exporter = exporter
	return j
}

func (j *LabelingJob) WithReporters(reporters ...Reporter) *LabelingJob {
	j.reporters = append(j.reporters, reporters...)
	return j
}

// Run executes one labeling pass. It always returns a report; failures are
// described by Outcome, FailedStage and ErrorKind.
func (j *LabelingJob) Run(ctx context.Context) domain.RunReport {
	report := domain.RunReport{
		RunID:     j.newRunID(),
		StartedAt: j.now().UTC(),
	}

	ctx, span := j.tracer.Start(ctx, "LabelingJob.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", report.RunID),
		attribute.String("dedup_policy", string(j.opts.DedupPolicy)),
	)

	log := j.log.WithComponent("labeling_job").WithField("run_id", report.RunID)
	log.WithFields(logger.Fields{
		"lookback":            j.opts.Lookback.String(),
		"sentiment_threshold": j.opts.SentimentThreshold,
		"dedup_policy":        j.opts.DedupPolicy,
	}).Info("labeling run started")

	err := j.execute(ctx, &report, log)
	report.FinishedAt = j.now().UTC()

	if err != nil {
		report.State = StateFailed
		report.Outcome = domain.OutcomeFailed
		report.Error = err.Error()
		var se *StageError
		if errors.As(err, &se) {
			report.FailedStage = se.Stage
			report.ErrorKind = string(se.Kind)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.WithError(err).WithFields(logger.Fields{
			"stage": report.FailedStage,
			"kind":  report.ErrorKind,
		}).Error("labeling run failed")
	} else {
		log.WithFields(logger.Fields{
			"outcome":     report.Outcome,
			"deleted":     report.Deleted,
			"merged_rows": report.MergedRows,
			"artifacts":   len(report.Artifacts),
			"duration":    report.Duration().String(),
		}).Info("labeling run finished")
	}
	span.SetAttributes(attribute.String("outcome", string(report.Outcome)))

	j.notify(ctx, report, log)
	return report
}

func (j *LabelingJob) execute(ctx context.Context, report *domain.RunReport, log *logger.Entry) error {
	since := report.StartedAt.Add(-j.opts.Lookback)

	err := j.stage(ctx, report, StageDedup, func(ctx context.Context) error {
		deleted, err := j.stocks.Deduplicate(ctx, j.opts.DedupPolicy)
		if err != nil {
			return stageError(StageDedup, KindStore, err)
		}
		report.Deleted = deleted
		log.WithField("deleted", deleted).Info("duplicate stock rows removed")
		return nil
	})
	if err != nil {
		return err
	}

	var stocks []domain.StockRecord
	err = j.stage(ctx, report, StageReadStock, func(ctx context.Context) error {
		rows, err := j.stocks.ListSince(ctx, since)
		if err != nil {
			return stageError(StageReadStock, KindStore, err)
		}
		stocks = rows
		report.StockRows = len(stocks)
		if len(stocks) == 0 {
			log.WithField("since", since).Warn("no stock rows in lookback window")
		}
		return nil
	})
	if err != nil {
		return err
	}

	var sentiments []domain.SentimentRecord
	err = j.stage(ctx, report, StageReadSentiment, func(ctx context.Context) error {
		rows, err := j.sentiments.ListHighConfidenceSince(ctx, j.opts.SentimentThreshold, since)
		if err != nil {
			return stageError(StageReadSentiment, KindStore, err)
		}
		sentiments = rows
		report.SentimentRows = len(sentiments)
		if len(sentiments) == 0 {
			log.WithFields(logger.Fields{
				"since":     since,
				"min_score": j.opts.SentimentThreshold,
			}).Warn("no high-confidence sentiment rows in lookback window")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(stocks) == 0 || len(sentiments) == 0 {
		report.State = StateEmpty
		report.Outcome = domain.OutcomeEmpty
		return nil
	}

	var merged []domain.MergedRecord
	err = j.stage(ctx, report, StageMerge, func(ctx context.Context) error {
		rows, err := labeling.Merge(stocks, sentiments)
		if err != nil {
			return stageError(StageMerge, KindDataShape, err)
		}
		merged = rows
		summary := labeling.Summarize(merged)
		report.MergedRows = len(merged)
		report.Summary = &summary
		log.WithFields(logger.Fields{
			"rows":      summary.Rows,
			"matched":   summary.Matched,
			"up_labels": summary.UpLabels,
		}).Info("stock rows merged and labeled")
		return nil
	})
	if err != nil {
		return err
	}

	err = j.stage(ctx, report, StageSink, func(ctx context.Context) error {
		return j.sink(ctx, report, merged, stocks, sentiments, log)
	})
	if err != nil {
		return err
	}

	report.State = StateDone
	report.Outcome = domain.OutcomeCompleted
	return nil
}

func (j *LabelingJob) sink(ctx context.Context, report *domain.RunReport, merged []domain.MergedRecord, stocks []domain.StockRecord, sentiments []domain.SentimentRecord, log *logger.Entry) error {
	var files []string
	for _, w := range j.writers {
		path, err := w.Write(merged)
		if err != nil {
			return stageError(StageSink, KindSink, err)
		}
		files = append(files, path)
		log.WithField("path", path).Info("labeled table written")
	}

	if j.chart != nil {
		path, err := j.chart.Render(stocks, sentiments)
		if err != nil {
			return stageError(StageSink, KindSink, err)
		}
		files = append(files, path)
		log.WithField("path", path).Info("trend chart written")
	}
	report.Artifacts = append(report.Artifacts, files...)

	if j.exporter != nil && len(files) > 0 {
		uris, err := j.exporter.Export(ctx, report.StartedAt, files)
		report.Artifacts = append(report.Artifacts, uris...)
		if err != nil {
			return stageError(StageSink, KindSink, err)
		}
	}
	return nil
}

func (j *LabelingJob) stage(ctx context.Context, report *domain.RunReport, name string, fn func(ctx context.Context) error) error {
	report.State = name
	ctx, span := j.tracer.Start(ctx, "LabelingJob."+name)
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (j *LabelingJob) notify(ctx context.Context, report domain.RunReport, log *logger.Entry) {
	for _, r := range j.reporters {
		if err := r.Report(ctx, report); err != nil {
			log.WithError(err).Warn("run report not delivered")
		}
	}
}
