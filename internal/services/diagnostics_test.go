package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"

	"profile-feed-api/internal/models"
)

type fakeDynamoDB struct {
	inputs []*dynamodb.PutItemInput
	err    error
}

func (f *fakeDynamoDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.PutItemOutput{}, nil
}

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.inputs = append(f.inputs, params)
	body, _ := io.ReadAll(params.Body)
	f.bodies = append(f.bodies, body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func finishedRun(outcome models.RunOutcome) *models.ExtractionRun {
	run := models.NewExtractionRun("run-42", "cubsgulf", time.Date(2024, 3, 9, 22, 15, 0, 0, time.UTC))
	run.Attempts = append(run.Attempts, models.StrategyAttempt{
		Strategy:  StrategyStructuredEndpoint,
		ErrorKind: models.ErrorKindUpstream,
		Error:     "upstream unavailable: returned status 429",
	})
	run.PageSample = "<html>login</html>"
	run.Outcome = outcome
	run.StatusCode = 200
	run.PostsReturned = 3
	return run
}

func TestRunLogStore_RecordRun(t *testing.T) {
	client := &fakeDynamoDB{}
	store := NewRunLogStore(client, "feed-runs", 14)
	require.Equal(t, "feed-runs", store.TableName())

	run := finishedRun(models.OutcomeFallback)
	require.NoError(t, store.RecordRun(context.Background(), run))
	require.Len(t, client.inputs, 1)

	input := client.inputs[0]
	require.Equal(t, "feed-runs", aws.ToString(input.TableName))

	pk, ok := input.Item["PK"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	require.Equal(t, "RUN#2024-03-09", pk.Value)

	sk, ok := input.Item["SK"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	require.Equal(t, "2024-03-09T22:15:00Z#run-42", sk.Value)

	_, hasTTL := input.Item["TTL"]
	require.True(t, hasTTL)
	_, hasSample := input.Item["page_sample"]
	require.False(t, hasSample)

	var stored models.ExtractionRun
	require.NoError(t, attributevalue.UnmarshalMap(input.Item, &stored))
	require.Equal(t, models.OutcomeFallback, stored.Outcome)
	require.Equal(t, models.CalculateRunTTL(run.StartedAt, 14), stored.TTL)
	require.Len(t, stored.Attempts, 1)
	require.Equal(t, models.ErrorKindUpstream, stored.Attempts[0].ErrorKind)
}

func TestRunLogStore_PutError(t *testing.T) {
	store := NewRunLogStore(&fakeDynamoDB{err: errors.New("throttled")}, "feed-runs", 0)

	err := store.RecordRun(context.Background(), finishedRun(models.OutcomeLive))
	require.Error(t, err)
	require.Contains(t, err.Error(), "throttled")
}

func TestRunReportArchive_RecordRun(t *testing.T) {
	client := &fakeS3{}
	archive := NewRunReportArchive(client, "feed-diagnostics")
	require.Equal(t, "feed-diagnostics", archive.BucketName())

	require.NoError(t, archive.RecordRun(context.Background(), finishedRun(models.OutcomeFallback)))
	require.Len(t, client.inputs, 1)

	input := client.inputs[0]
	require.Equal(t, "feed-diagnostics", aws.ToString(input.Bucket))
	require.Equal(t, "extraction-runs/2024-03-09/run-42.json", aws.ToString(input.Key))
	require.Equal(t, "application/json", aws.ToString(input.ContentType))
	require.Equal(t, "fallback", input.Metadata["outcome"])

	var report map[string]interface{}
	require.NoError(t, json.Unmarshal(client.bodies[0], &report))
	require.Equal(t, "run-42", report["run_id"])
	require.Equal(t, "<html>login</html>", report["page_sample"])
}

func TestRunReportArchive_SkipsLiveAndTestRuns(t *testing.T) {
	client := &fakeS3{}
	archive := NewRunReportArchive(client, "feed-diagnostics")

	require.NoError(t, archive.RecordRun(context.Background(), finishedRun(models.OutcomeLive)))
	require.NoError(t, archive.RecordRun(context.Background(), finishedRun(models.OutcomeTest)))
	require.Empty(t, client.inputs)

	require.NoError(t, archive.RecordRun(context.Background(), finishedRun(models.OutcomePanic)))
	require.Len(t, client.inputs, 1)
}

func TestRunReportArchive_PutError(t *testing.T) {
	archive := NewRunReportArchive(&fakeS3{err: errors.New("access denied")}, "feed-diagnostics")

	err := archive.RecordRun(context.Background(), finishedRun(models.OutcomeFallback))
	require.Error(t, err)
	require.Contains(t, err.Error(), "access denied")
}

func TestNewDiagnosticRecorders_NothingConfigured(t *testing.T) {
	recorders, err := NewDiagnosticRecorders(context.Background(), DiagnosticsConfig{RetentionDays: 14})
	require.NoError(t, err)
	require.Empty(t, recorders)
}

func TestNewDiagnosticRecorders_Configured(t *testing.T) {
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_PROFILE", "")

	recorders, err := NewDiagnosticRecorders(context.Background(), DiagnosticsConfig{
		TableName:     "feed-runs",
		BucketName:    "feed-diagnostics",
		RetentionDays: 14,
	})
	require.NoError(t, err)
	require.Len(t, recorders, 2)

	store, ok := recorders[0].(*RunLogStore)
	require.True(t, ok)
	require.Equal(t, "feed-runs", store.TableName())

	archive, ok := recorders[1].(*RunReportArchive)
	require.True(t, ok)
	require.Equal(t, "feed-diagnostics", archive.BucketName())
}
