// Package metrics publishes per-run numbers to CloudWatch.
package metrics

import (
	"context"
	"fmt"
	"strings"

	"sentiment-labeler/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

type MetricPutter interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

func NewCloudWatchClient(ctx context.Context, region string) (*cloudwatch.Client, error) {
	opts := []func(*config.LoadOptions) error{}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return cloudwatch.NewFromConfig(cfg), nil
}

// RunPublisher sends one batch of datums per run, dimensioned by outcome.
type RunPublisher struct {
	client    MetricPutter
	namespace string
}

func NewRunPublisher(client MetricPutter, namespace string) (*RunPublisher, error) {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return nil, fmt.Errorf("cloudwatch namespace not configured")
	}
	return &RunPublisher{client: client, namespace: namespace}, nil
}

func (p *RunPublisher) Report(ctx context.Context, report domain.RunReport) error {
	_, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(p.namespace),
		MetricData: runDatums(report),
	})
	if err != nil {
		return fmt.Errorf("put run metrics: %w", err)
	}
	return nil
}

func runDatums(report domain.RunReport) []cwtypes.MetricDatum {
	dims := []cwtypes.Dimension{{
		Name:  aws.String("Outcome"),
		Value: aws.String(string(report.Outcome)),
	}}
	datum := func(name string, value float64, unit cwtypes.StandardUnit) cwtypes.MetricDatum {
		d := cwtypes.MetricDatum{
			MetricName: aws.String(name),
			Dimensions: dims,
			Value:      aws.Float64(value),
			Unit:       unit,
		}
		if !report.FinishedAt.IsZero() {
			d.Timestamp = aws.Time(report.FinishedAt)
		}
		return d
	}

	data := []cwtypes.MetricDatum{
		datum("Runs", 1, cwtypes.StandardUnitCount),
		datum("RunDuration", report.Duration().Seconds(), cwtypes.StandardUnitSeconds),
		datum("DuplicatesDeleted", float64(report.Deleted), cwtypes.StandardUnitCount),
		datum("StockRows", float64(report.StockRows), cwtypes.StandardUnitCount),
		datum("SentimentRows", float64(report.SentimentRows), cwtypes.StandardUnitCount),
	}
	if s := report.Summary; s != nil {
		data = append(data,
			datum("LabeledRows", float64(s.Rows), cwtypes.StandardUnitCount),
			datum("MatchedRows", float64(s.Matched), cwtypes.StandardUnitCount),
			datum("UpRatio", s.UpRatio, cwtypes.StandardUnitNone),
		)
	}
	return data
}
