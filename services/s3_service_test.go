package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibin_matcher/models"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, f.err
}

func TestS3ReportArchiveSaveReport(t *testing.T) {
	client := &fakeS3{}
	archive := &S3ReportArchive{Client: client, Bucket: "reports", Prefix: "batch-runs"}
	report := models.RunReport{RunID: "run-1", StartedAt: testNow, RomanticMatches: 3}

	require.NoError(t, archive.SaveReport(context.Background(), report))

	assert.Equal(t, "reports", *client.input.Bucket)
	assert.Equal(t, "batch-runs/2026/10/19/run-1.json", *client.input.Key)
	assert.Equal(t, "application/json", *client.input.ContentType)

	var got models.RunReport
	require.NoError(t, json.Unmarshal(client.body, &got))
	assert.Equal(t, 3, got.RomanticMatches)
}

func TestS3ReportArchiveSaveReportError(t *testing.T) {
	client := &fakeS3{err: errors.New("access denied")}
	archive := &S3ReportArchive{Client: client, Bucket: "reports"}

	err := archive.SaveReport(context.Background(), models.RunReport{RunID: "run-2", StartedAt: testNow})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://reports/2026/10/19/run-2.json")
}
