package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"profile-feed-api/internal/models"
)

// S3PutAPI is the subset of the S3 client used by RunReportArchive
type S3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// RunReportArchive uploads JSON run reports for requests that did not serve live posts.
// Live runs are skipped; the DynamoDB log already covers them.
type RunReportArchive struct {
	client     S3PutAPI
	bucketName string
}

// NewRunReportArchive creates an archive writing into bucketName
func NewRunReportArchive(client S3PutAPI, bucketName string) *RunReportArchive {
	return &RunReportArchive{
		client:     client,
		bucketName: bucketName,
	}
}

// BucketName returns the configured bucket
func (a *RunReportArchive) BucketName() string {
	return a.bucketName
}

// RecordRun uploads the run report, page sample included, unless the run was live or test mode
func (a *RunReportArchive) RecordRun(ctx context.Context, run *models.ExtractionRun) error {
	if run.Outcome == models.OutcomeLive || run.Outcome == models.OutcomeTest {
		return nil
	}

	jsonData, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run report to JSON: %w", err)
	}

	key := strings.TrimPrefix(models.CreateRunReportKey(run.StartedAt, run.RunID), "/")

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(jsonData),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"uploaded-by": "profile-feed-api",
			"outcome":     string(run.Outcome),
			"upload-time": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload run report to S3: %w", err)
	}

	return nil
}
