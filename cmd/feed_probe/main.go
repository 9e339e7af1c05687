package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"profile-feed-api/internal/api"
	"profile-feed-api/internal/config"
	"profile-feed-api/internal/models"
	"profile-feed-api/internal/services"
)

// Runs the extraction pipeline once against the live upstream and prints the run report.
// Useful to see which strategy still works before deploying.
func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg == nil {
		return
	}

	log.Printf("Probing %s for handle %s...", cfg.BaseURL, cfg.Handle)

	pipeline := api.NewPipeline(cfg)
	run := models.NewExtractionRun(uuid.NewString(), cfg.Handle, time.Now())

	nodes, err := pipeline.Run(context.Background(), cfg.Handle, run)
	if err != nil {
		log.Printf("No strategy succeeded: %v", err)
		run.ErrorMessage = err.Error()
		run.Finish(models.OutcomeFallback, 200, 0)
	} else {
		posts := services.NewNormalizer(cfg.Handle).Normalize(nodes)
		run.Finish(models.OutcomeLive, 200, len(posts))
		for i, post := range posts {
			log.Printf("Post %d: %s (%d likes, %d comments)", i+1, post.Link, post.Likes, post.Comments)
		}
	}

	for _, attempt := range run.Attempts {
		status := "failed"
		if attempt.Success {
			status = "ok"
		}
		log.Printf("  %-20s %-7s nodes=%d %dms %s", attempt.Strategy, status, attempt.NodesFound, attempt.DurationMS, attempt.Error)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(run); err != nil {
		log.Fatalf("Failed to write run report: %v", err)
	}

	if run.Outcome != models.OutcomeLive {
		os.Exit(1)
	}
}
