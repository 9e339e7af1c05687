package api

import (
	"context"
	"log"

	"profile-feed-api/internal/config"
	"profile-feed-api/internal/services"
)

// NewPipeline builds the upstream client and the ordered strategies from configuration
func NewPipeline(cfg *config.Config) *services.ExtractionPipeline {
	client := services.NewInstagramClient(services.InstagramClientConfig{
		BaseURL:   cfg.BaseURL,
		UserAgent: cfg.UserAgent,
		Debug:     cfg.Debug,
	})
	return services.NewExtractionPipeline(services.DefaultStrategies(client), cfg.UpstreamTimeout)
}

// NewFeedHandlerFromConfig wires the pipeline and the optional diagnostic sinks.
// A broken diagnostics setup is logged and the feed is served without it.
func NewFeedHandlerFromConfig(ctx context.Context, cfg *config.Config) *FeedHandler {
	recorders, err := services.NewDiagnosticRecorders(ctx, services.DiagnosticsConfig{
		TableName:     cfg.DiagnosticsTable,
		BucketName:    cfg.DiagnosticsBucket,
		RetentionDays: cfg.DiagnosticsRetentionDays,
	})
	if err != nil {
		log.Printf("WARNING: diagnostics disabled: %v", err)
		recorders = nil
	}

	return NewFeedHandler(NewHandlerConfig(cfg.Handle, cfg.CacheControl), NewPipeline(cfg), recorders...)
}
