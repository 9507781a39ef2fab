package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"sentiment-labeler/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

type fakePutter struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (f *fakePutter) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func datumsByName(data []cwtypes.MetricDatum) map[string]cwtypes.MetricDatum {
	out := make(map[string]cwtypes.MetricDatum, len(data))
	for _, d := range data {
		out[aws.ToString(d.MetricName)] = d
	}
	return out
}

func TestNewRunPublisherRequiresNamespace(t *testing.T) {
	if _, err := NewRunPublisher(&fakePutter{}, " "); err == nil {
		t.Fatal("expected error for blank namespace")
	}
}

func TestReportPublishesCompletedRun(t *testing.T) {
	fake := &fakePutter{}
	p, err := NewRunPublisher(fake, "Labeler")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	start := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
	report := domain.RunReport{
		Outcome:    domain.OutcomeCompleted,
		Deleted:    4,
		StockRows:  10,
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Summary:    &domain.Summary{Rows: 10, Matched: 7, UpRatio: 0.4},
	}
	if err := p.Report(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fake.inputs) != 1 || aws.ToString(fake.inputs[0].Namespace) != "Labeler" {
		t.Fatalf("expected one put into Labeler, got %+v", fake.inputs)
	}
	byName := datumsByName(fake.inputs[0].MetricData)
	if d := byName["RunDuration"]; aws.ToFloat64(d.Value) != 1.5 || d.Unit != cwtypes.StandardUnitSeconds {
		t.Fatalf("unexpected duration datum %+v", d)
	}
	if d := byName["DuplicatesDeleted"]; aws.ToFloat64(d.Value) != 4 {
		t.Fatalf("unexpected dedup datum %+v", d)
	}
	if d := byName["UpRatio"]; aws.ToFloat64(d.Value) != 0.4 {
		t.Fatalf("unexpected up ratio datum %+v", d)
	}
	runs := byName["Runs"]
	if len(runs.Dimensions) != 1 || aws.ToString(runs.Dimensions[0].Value) != "completed" {
		t.Fatalf("runs must be dimensioned by outcome: %+v", runs.Dimensions)
	}
}

func TestReportFailedRunHasNoSummaryMetrics(t *testing.T) {
	data := runDatums(domain.RunReport{Outcome: domain.OutcomeFailed})
	byName := datumsByName(data)
	if _, ok := byName["UpRatio"]; ok {
		t.Fatal("summary metrics must be skipped without a summary")
	}
	if d := byName["Runs"]; d.Timestamp != nil {
		t.Fatal("unfinished report should not carry a timestamp")
	}
}

func TestReportPropagatesError(t *testing.T) {
	p, _ := NewRunPublisher(&fakePutter{err: errors.New("throttled")}, "Labeler")
	if err := p.Report(context.Background(), domain.RunReport{Outcome: domain.OutcomeEmpty}); err == nil {
		t.Fatal("expected error")
	}
}
