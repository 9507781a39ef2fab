package main

import (
	"context"
	"os"
	"time"

	"sentiment-labeler/internal/bot"
	"sentiment-labeler/internal/cache"
	"sentiment-labeler/internal/config"
	"sentiment-labeler/internal/db"
	"sentiment-labeler/internal/domain"
	"sentiment-labeler/internal/export"
	"sentiment-labeler/internal/job"
	"sentiment-labeler/internal/logger"
	"sentiment-labeler/internal/metrics"
	"sentiment-labeler/internal/repository"
	"sentiment-labeler/internal/sink"
	"sentiment-labeler/pkg/tracing"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
)

type database interface {
	repository.PgxPool
	Close()
}

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	initTracerFunc = tracing.InitTracer
	connectDBFunc  = func(ctx context.Context, cfg *config.Config) (database, error) {
		return db.Connect(ctx, cfg)
	}
	newStockStoreFunc = func(pool repository.PgxPool, tracer trace.Tracer) job.StockStore {
		return repository.NewStockRepository(pool, tracer)
	}
	newSentimentStoreFunc = func(pool repository.PgxPool, tracer trace.Tracer) job.SentimentStore {
		return repository.NewSentimentRepository(pool, tracer)
	}
	newS3ClientFunc = func(ctx context.Context, cfg config.S3Config) (export.ObjectPutter, error) {
		return export.NewS3Client(ctx, cfg)
	}
	connectRedisFunc = func(ctx context.Context, url string) (cache.Setter, func() error, error) {
		client, err := cache.Connect(ctx, url)
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	}
	newMetricsClientFunc = func(ctx context.Context, region string) (metrics.MetricPutter, error) {
		return metrics.NewCloudWatchClient(ctx, region)
	}
	newNotifierFunc = func(token string, chatID int64, chartPath string) (job.Reporter, error) {
		return bot.NewTelegramNotifier(token, chatID, chartPath)
	}
	exitFunc = os.Exit
)

func main() {
	exitFunc(run())
}

func run() int {
	_ = loadEnvFunc()

	cfg := loadConfigFunc()
	log := logger.GetLogger()
	if err := log.Configure(cfg.LogLevel, cfg.LogFormat, cfg.LogFile); err != nil {
		log.WithError(err).Warn("logger configuration rejected, keeping defaults")
	}
	entry := log.WithComponent("main")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		entry.WithError(err).Error("failed to initialize tracer")
		return 1
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			entry.WithError(err).Warn("error shutting down tracer provider")
		}
	}()

	policy, err := repository.ParseDedupPolicy(cfg.DedupPolicy)
	if err != nil {
		entry.WithError(err).WithField("default", repository.DefaultDedupPolicy).Warn("unknown dedup policy, using default")
		policy = repository.DefaultDedupPolicy
	}

	pool, err := connectDBFunc(ctx, cfg)
	if err != nil {
		entry.WithError(err).Error("failed to connect to postgres")
		return 1
	}
	defer pool.Close()

	labeler := job.NewLabelingJob(
		tracer,
		newStockStoreFunc(pool, tracer),
		newSentimentStoreFunc(pool, tracer),
		job.Options{
			Lookback:           time.Duration(cfg.LookbackHours) * time.Hour,
			SentimentThreshold: cfg.SentimentThreshold,
			DedupPolicy:        policy,
		},
	)

	if cfg.WritesCSV() {
		labeler.WithTableWriters(sink.NewCSVWriter(cfg.OutputDir))
	}
	if cfg.WritesParquet() {
		labeler.WithTableWriters(sink.NewParquetWriter(cfg.OutputDir))
	}
	chart := sink.NewChartRenderer(cfg.OutputDir, cfg.ChartWidth, cfg.ChartHeight)
	labeler.WithChart(chart)

	if cfg.S3.Enabled() {
		client, err := newS3ClientFunc(ctx, cfg.S3)
		if err != nil {
			entry.WithError(err).Error("failed to create s3 client")
			return 1
		}
		exporter, err := export.NewS3Exporter(client, cfg.S3.Bucket, cfg.S3.Prefix, tracer)
		if err != nil {
			entry.WithError(err).Error("invalid s3 export settings")
			return 1
		}
		labeler.WithExporter(exporter)
	}

	if cfg.RedisURL != "" {
		client, closeRedis, err := connectRedisFunc(ctx, cfg.RedisURL)
		if err != nil {
			entry.WithError(err).Warn("redis unavailable, run report will not be cached")
		} else {
			defer closeRedis()
			labeler.WithReporters(cache.NewReportStore(client))
		}
	}

	if cfg.CloudWatch.Namespace != "" {
		if err := addMetricsReporter(ctx, labeler, cfg.CloudWatch); err != nil {
			entry.WithError(err).Warn("cloudwatch metrics disabled")
		}
	}

	if cfg.NotificationsEnabled() {
		notifier, err := newNotifierFunc(cfg.TelegramBotToken, cfg.TelegramChatID, chart.Path())
		if err != nil {
			entry.WithError(err).Warn("telegram notifications disabled")
		} else {
			labeler.WithReporters(notifier)
		}
	}

	report := labeler.Run(ctx)
	return exitCode(report, cfg.StrictExit)
}

func addMetricsReporter(ctx context.Context, labeler *job.LabelingJob, cfg config.CloudWatchConfig) error {
	client, err := newMetricsClientFunc(ctx, cfg.Region)
	if err != nil {
		return err
	}
	publisher, err := metrics.NewRunPublisher(client, cfg.Namespace)
	if err != nil {
		return err
	}
	labeler.WithReporters(publisher)
	return nil
}

// exitCode is 0 for every outcome unless strict mode asks failed runs to
// exit 1.
func exitCode(report domain.RunReport, strict bool) int {
	if strict && report.Outcome == domain.OutcomeFailed {
		return 1
	}
	return 0
}
