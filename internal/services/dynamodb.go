package services

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"profile-feed-api/internal/models"
)

// RunRecorder persists a finished run for drift diagnostics. Implementations are write-only.
type RunRecorder interface {
	RecordRun(ctx context.Context, run *models.ExtractionRun) error
}

// DynamoDBPutAPI is the subset of the DynamoDB client used by RunLogStore
type DynamoDBPutAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// RunLogStore writes one item per request into the run log table
type RunLogStore struct {
	client        DynamoDBPutAPI
	tableName     string
	retentionDays int
}

// NewRunLogStore creates a run log store
func NewRunLogStore(client DynamoDBPutAPI, tableName string, retentionDays int) *RunLogStore {
	return &RunLogStore{
		client:        client,
		tableName:     tableName,
		retentionDays: retentionDays,
	}
}

// TableName returns the configured table
func (s *RunLogStore) TableName() string {
	return s.tableName
}

// RecordRun stores the run keyed by day partition and timestamp
func (s *RunLogStore) RecordRun(ctx context.Context, run *models.ExtractionRun) error {
	// Generate keys and TTL
	run.PopulateKeys(s.retentionDays)

	item, err := attributevalue.MarshalMap(run)
	if err != nil {
		return fmt.Errorf("failed to marshal extraction run: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to store extraction run: %w", err)
	}

	return nil
}
