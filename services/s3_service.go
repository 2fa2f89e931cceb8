package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"vibin_matcher/models"
)

// S3PutAPI is the subset of the S3 client the report archive uses.
type S3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3ReportArchive stores run reports as JSON objects.
type S3ReportArchive struct {
	Client S3PutAPI
	Bucket string
	Prefix string
}

// NewS3ReportArchive builds an archive writing to bucket under prefix.
func NewS3ReportArchive(cfg aws.Config, bucket, prefix string) *S3ReportArchive {
	return &S3ReportArchive{Client: s3.NewFromConfig(cfg), Bucket: bucket, Prefix: prefix}
}

// ReportKey is the object key of a report: <prefix>/<yyyy>/<mm>/<dd>/<runId>.json
func (a *S3ReportArchive) ReportKey(report models.RunReport) string {
	return path.Join(a.Prefix, report.StartedAt.UTC().Format("2006/01/02"), report.RunID+".json")
}

// SaveReport uploads report.
func (a *S3ReportArchive) SaveReport(ctx context.Context, report models.RunReport) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}
	key := a.ReportKey(report)
	_, err = a.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload run report to s3://%s/%s: %w", a.Bucket, key, err)
	}
	return nil
}
