package services

import (
	"context"
	"fmt"
	"log"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DiagnosticsConfig names the optional sinks for run records
type DiagnosticsConfig struct {
	TableName     string
	BucketName    string
	RetentionDays int
}

// NewDiagnosticRecorders builds the configured sinks. With nothing configured it returns
// no recorders and never touches AWS configuration.
func NewDiagnosticRecorders(ctx context.Context, cfg DiagnosticsConfig) ([]RunRecorder, error) {
	if cfg.TableName == "" && cfg.BucketName == "" {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var recorders []RunRecorder
	if cfg.TableName != "" {
		recorders = append(recorders, NewRunLogStore(dynamodb.NewFromConfig(awsCfg), cfg.TableName, cfg.RetentionDays))
		log.Printf("[DIAGNOSTICS] run log enabled: table=%s retention=%dd", cfg.TableName, cfg.RetentionDays)
	}
	if cfg.BucketName != "" {
		recorders = append(recorders, NewRunReportArchive(s3.NewFromConfig(awsCfg), cfg.BucketName))
		log.Printf("[DIAGNOSTICS] run report archive enabled: bucket=%s", cfg.BucketName)
	}

	return recorders, nil
}
