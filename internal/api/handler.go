package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"profile-feed-api/internal/models"
	"profile-feed-api/internal/services"
)

const (
	noCache = "no-cache"

	// SourceHeader tells which path produced the body
	SourceHeader = "X-Feed-Source"

	defaultRecordTimeout = 3 * time.Second

	// defaultDeadlineReserve is kept free before the invocation deadline;
	// extraction stops at the full reserve, recording at half of it
	defaultDeadlineReserve = 1 * time.Second
)

// Extractor produces raw nodes for a handle, recording attempts on run
type Extractor interface {
	Run(ctx context.Context, handle string, run *models.ExtractionRun) ([]models.RawNode, error)
}

// HandlerConfig is everything the dispatcher needs besides its collaborators
type HandlerConfig struct {
	Handle          string
	CacheControl    string
	FallbackPosts   []models.PostSummary
	DiagnosticPosts []models.PostSummary
	RecordTimeout   time.Duration
	DeadlineReserve time.Duration
}

// NewHandlerConfig fills the payloads for a handle
func NewHandlerConfig(handle, cacheControl string) HandlerConfig {
	return HandlerConfig{
		Handle:          handle,
		CacheControl:    cacheControl,
		FallbackPosts:   models.FallbackPosts(handle),
		DiagnosticPosts: models.DiagnosticPosts(handle),
		RecordTimeout:   defaultRecordTimeout,
		DeadlineReserve: defaultDeadlineReserve,
	}
}

// FeedHandler answers feed requests for a single, server-configured handle
type FeedHandler struct {
	cfg        HandlerConfig
	extractor  Extractor
	normalizer *services.Normalizer
	recorders  []services.RunRecorder
	newRunID   func() string
}

// NewFeedHandler wires a handler. recorders may be empty.
func NewFeedHandler(cfg HandlerConfig, extractor Extractor, recorders ...services.RunRecorder) *FeedHandler {
	if cfg.RecordTimeout <= 0 {
		cfg.RecordTimeout = defaultRecordTimeout
	}
	if cfg.DeadlineReserve <= 0 {
		cfg.DeadlineReserve = defaultDeadlineReserve
	}
	if len(cfg.FallbackPosts) == 0 {
		cfg.FallbackPosts = models.FallbackPosts(cfg.Handle)
	}
	if len(cfg.DiagnosticPosts) == 0 {
		cfg.DiagnosticPosts = models.DiagnosticPosts(cfg.Handle)
	}

	return &FeedHandler{
		cfg:        cfg,
		extractor:  extractor,
		normalizer: services.NewNormalizer(cfg.Handle),
		recorders:  recorders,
		newRunID:   uuid.NewString,
	}
}

// HandleRequest is the API Gateway proxy entry point
func (h *FeedHandler) HandleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	headers := corsHeaders()
	method := strings.ToUpper(request.HTTPMethod)

	// Handle preflight OPTIONS request
	if method == http.MethodOptions {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    headers,
			Body:       "",
		}, nil
	}

	if method != http.MethodGet {
		log.Printf("[HANDLER] rejected %s %s", method, request.Path)
		headers["Content-Type"] = "application/json"
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusMethodNotAllowed,
			Headers:    headers,
			Body:       `{"error":"Method not allowed"}`,
		}, nil
	}

	if isTestMode(request) {
		log.Printf("[HANDLER] test mode request for %s", h.cfg.Handle)
		return h.respond(headers, http.StatusOK, h.cfg.DiagnosticPosts, noCache, "test"), nil
	}

	run := models.NewExtractionRun(h.newRunID(), h.cfg.Handle, time.Now())
	run.RequestID = request.RequestContext.RequestID

	extractCtx, cancel := h.extractionContext(ctx)
	posts, status, cacheControl := h.serveFeed(extractCtx, run)
	cancel()

	source := run.WinningStrategy
	if source == "" || run.Outcome != models.OutcomeLive {
		source = string(run.Outcome)
	}
	response := h.respond(headers, status, posts, cacheControl, source)
	if response.StatusCode != status {
		run.Finish(models.OutcomePanic, response.StatusCode, len(h.cfg.FallbackPosts))
	}

	log.Printf("[HANDLER] %s", run.Summary())
	h.record(ctx, run)

	return response, nil
}

// serveFeed runs extraction and normalization. Anything that panics past the
// pipeline is answered with the fallback posts and a 500.
func (h *FeedHandler) serveFeed(ctx context.Context, run *models.ExtractionRun) (posts []models.PostSummary, status int, cacheControl string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[HANDLER] unhandled failure while building feed for %s: %v", h.cfg.Handle, r)
			run.ErrorMessage = fmt.Sprint(r)
			posts, status, cacheControl = h.cfg.FallbackPosts, http.StatusInternalServerError, ""
			run.Finish(models.OutcomePanic, status, len(posts))
		}
	}()

	nodes, err := h.extractor.Run(ctx, h.cfg.Handle, run)
	if err != nil || len(nodes) == 0 {
		if err == nil {
			err = services.ErrTotalExtractionFailure
		}
		log.Printf("[HANDLER] serving fallback posts for %s: %v", h.cfg.Handle, err)
		run.ErrorMessage = err.Error()
		run.Finish(models.OutcomeFallback, http.StatusOK, len(h.cfg.FallbackPosts))
		return h.cfg.FallbackPosts, http.StatusOK, ""
	}

	posts = h.normalizer.Normalize(nodes)
	if len(posts) == 0 {
		run.ErrorMessage = "normalization produced no posts"
		run.Finish(models.OutcomeFallback, http.StatusOK, len(h.cfg.FallbackPosts))
		return h.cfg.FallbackPosts, http.StatusOK, ""
	}

	run.Finish(models.OutcomeLive, http.StatusOK, len(posts))
	return posts, http.StatusOK, h.cfg.CacheControl
}

// respond serializes posts; a serialization failure becomes the fallback body with a 500
func (h *FeedHandler) respond(headers map[string]string, status int, posts []models.PostSummary, cacheControl, source string) events.APIGatewayProxyResponse {
	headers["Content-Type"] = "application/json"
	if cacheControl != "" {
		headers["Cache-Control"] = cacheControl
	}
	if source != "" {
		headers[SourceHeader] = source
	}

	body, err := json.Marshal(posts)
	if err != nil {
		log.Printf("[HANDLER] error marshaling response body: %v", err)
		delete(headers, "Cache-Control")
		fallback, _ := json.Marshal(h.cfg.FallbackPosts)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    headers,
			Body:       string(fallback),
		}
	}

	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       string(body),
	}
}

// extractionContext stops extraction a full reserve before the invocation deadline,
// leaving time to serialize the fallback and record the run
func (h *FeedHandler) extractionContext(ctx context.Context) (context.Context, context.CancelFunc) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return context.WithCancel(ctx)
	}
	return context.WithDeadline(ctx, deadline.Add(-h.cfg.DeadlineReserve))
}

// record hands the run to every sink; failures are logged and never affect the response.
// Sinks share whatever remains before half the reserve ahead of the invocation deadline.
func (h *FeedHandler) record(ctx context.Context, run *models.ExtractionRun) {
	if len(h.recorders) == 0 {
		return
	}

	var limit time.Time
	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline {
		limit = deadline.Add(-h.cfg.DeadlineReserve / 2)
	}

	for _, recorder := range h.recorders {
		recordDeadline := time.Now().Add(h.cfg.RecordTimeout)
		if hasDeadline {
			if !time.Now().Before(limit) {
				log.Printf("[DIAGNOSTICS] skipped recording run %s: invocation deadline too close", run.RunID)
				return
			}
			if limit.Before(recordDeadline) {
				recordDeadline = limit
			}
		}

		recordCtx, cancel := context.WithDeadline(context.WithoutCancel(ctx), recordDeadline)
		if err := recordSafely(recordCtx, recorder, run); err != nil {
			log.Printf("[DIAGNOSTICS] failed to record run %s: %v", run.RunID, err)
		}
		cancel()
	}
}

func recordSafely(ctx context.Context, recorder services.RunRecorder, run *models.ExtractionRun) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recorder panicked: %v", r)
		}
	}()
	return recorder.RecordRun(ctx, run)
}

func corsHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "GET, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type",
	}
}

func isTestMode(request events.APIGatewayProxyRequest) bool {
	if request.QueryStringParameters["test"] == "1" {
		return true
	}
	for _, v := range request.MultiValueQueryStringParameters["test"] {
		if v == "1" {
			return true
		}
	}
	return false
}
