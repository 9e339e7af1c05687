package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"profile-feed-api/internal/api"
	"profile-feed-api/internal/config"
)

var feedHandler *api.FeedHandler

func init() {
	// Lambda passes no arguments, so configuration comes from the environment
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg == nil {
		os.Exit(0)
	}

	feedHandler = api.NewFeedHandlerFromConfig(context.Background(), cfg)

	log.Printf("Feed API initialized for handle %s (upstream %s, timeout %v)", cfg.Handle, cfg.BaseURL, cfg.UpstreamTimeout)
}

func main() {
	lambda.Start(feedHandler.HandleRequest)
}
