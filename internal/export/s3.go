// Package export copies finished run artifacts to object storage.
package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"sentiment-labeler/internal/config"
	"sentiment-labeler/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Exporter uploads artifacts to s3://bucket/prefix/<run-date>/<file>.
type S3Exporter struct {
	client ObjectPutter
	bucket string
	prefix string
	tracer trace.Tracer
	log    *logger.Log
}

func NewS3Exporter(client ObjectPutter, bucket, prefix string, tracer trace.Tracer) (*S3Exporter, error) {
	bucket, err := normalizeBucketName(bucket)
	if err != nil {
		return nil, err
	}
	return &S3Exporter{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(strings.TrimSpace(prefix), "/"),
		tracer: tracer,
		log:    logger.GetLogger(),
	}, nil
}

// NewS3Client builds an S3 client from the bucket settings. Static keys are
// used only when both halves are set; otherwise the default AWS chain applies.
func NewS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	}), nil
}

func normalizeBucketName(raw string) (string, error) {
	bucket := strings.TrimSpace(raw)
	if bucket == "" {
		return "", fmt.Errorf("s3 bucket not configured")
	}
	return bucket, nil
}

func (e *S3Exporter) ObjectKey(runDate time.Time, file string) string {
	parts := []string{runDate.UTC().Format("2006-01-02"), filepath.Base(file)}
	if e.prefix != "" {
		parts = append([]string{e.prefix}, parts...)
	}
	return path.Join(parts...)
}

// Export uploads each file and returns the s3:// URIs written. It stops at the
// first failure; objects already uploaded are left in place.
func (e *S3Exporter) Export(ctx context.Context, runDate time.Time, files []string) ([]string, error) {
	ctx, span := e.tracer.Start(ctx, "S3Exporter.Export")
	defer span.End()
	span.SetAttributes(
		attribute.String("s3.bucket", e.bucket),
		attribute.Int("artifact_count", len(files)),
	)

	uris := make([]string, 0, len(files))
	for _, file := range files {
		key := e.ObjectKey(runDate, file)
		if err := e.upload(ctx, file, key); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return uris, fmt.Errorf("upload %s: %w", filepath.Base(file), err)
		}
		uri := "s3://" + e.bucket + "/" + key
		uris = append(uris, uri)
		e.log.WithComponent("s3_export").WithFields(logger.Fields{
			"file": file,
			"uri":  uri,
		}).Info("artifact uploaded")
	}
	return uris, nil
}

func (e *S3Exporter) upload(ctx context.Context, file, key string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	input := &s3.PutObjectInput{
		Bucket:        aws.String(e.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType(file)),
	}
	_, err = e.client.PutObject(ctx, input)
	return err
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".csv":
		return "text/csv"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
