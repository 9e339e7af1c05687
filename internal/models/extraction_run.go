package models

import (
	"fmt"
	"time"
)

// RunOutcome describes how a request was answered
type RunOutcome string

const (
	OutcomeLive     RunOutcome = "live"     // live posts extracted
	OutcomeFallback RunOutcome = "fallback" // all strategies came back empty
	OutcomeTest     RunOutcome = "test"     // diagnostic short-circuit
	OutcomePanic    RunOutcome = "panic"    // unhandled failure, served with 500
)

// Error kinds recorded on strategy attempts
const (
	ErrorKindUpstream  = "upstream_unavailable"
	ErrorKindMismatch  = "extraction_mismatch"
	ErrorKindMalformed = "malformed_payload"
	ErrorKindTimeout   = "timeout"
	ErrorKindPanic     = "panic"
	ErrorKindUnknown   = "unknown"
)

// StrategyAttempt is one strategy invocation inside a run
type StrategyAttempt struct {
	Strategy   string `json:"strategy" dynamodbav:"strategy"`
	Success    bool   `json:"success" dynamodbav:"success"`
	NodesFound int    `json:"nodes_found" dynamodbav:"nodes_found"`
	ErrorKind  string `json:"error_kind,omitempty" dynamodbav:"error_kind,omitempty"`
	Error      string `json:"error,omitempty" dynamodbav:"error,omitempty"`
	DurationMS int64  `json:"duration_ms" dynamodbav:"duration_ms"`
}

// ExtractionRun summarizes a single request for drift diagnostics.
// It is written to the diagnostic sinks and never read back by the handler.
type ExtractionRun struct {
	PK string `json:"-" dynamodbav:"PK"`
	SK string `json:"-" dynamodbav:"SK"`

	RunID           string            `json:"run_id" dynamodbav:"run_id"`
	Handle          string            `json:"handle" dynamodbav:"handle"`
	RequestID       string            `json:"request_id,omitempty" dynamodbav:"request_id,omitempty"`
	StartedAt       time.Time         `json:"started_at" dynamodbav:"started_at"`
	DurationMS      int64             `json:"duration_ms" dynamodbav:"duration_ms"`
	Attempts        []StrategyAttempt `json:"attempts" dynamodbav:"attempts"`
	WinningStrategy string            `json:"winning_strategy,omitempty" dynamodbav:"winning_strategy,omitempty"`
	Outcome         RunOutcome        `json:"outcome" dynamodbav:"outcome"`
	StatusCode      int               `json:"status_code" dynamodbav:"status_code"`
	PostsReturned   int               `json:"posts_returned" dynamodbav:"posts_returned"`
	ErrorMessage    string            `json:"error_message,omitempty" dynamodbav:"error_message,omitempty"`

	// PageSample holds the head of the last fetched page for non-live outcomes
	PageSample string `json:"page_sample,omitempty" dynamodbav:"-"`

	TTL int64 `json:"-" dynamodbav:"TTL,omitempty"`
}

// NewExtractionRun starts a run record for a handle
func NewExtractionRun(runID, handle string, startedAt time.Time) *ExtractionRun {
	return &ExtractionRun{
		RunID:     runID,
		Handle:    handle,
		StartedAt: startedAt,
		Attempts:  []StrategyAttempt{},
	}
}

// Finish stamps the outcome and duration on the run
func (r *ExtractionRun) Finish(outcome RunOutcome, statusCode, postsReturned int) {
	r.Outcome = outcome
	r.StatusCode = statusCode
	r.PostsReturned = postsReturned
	r.DurationMS = time.Since(r.StartedAt).Milliseconds()
}

// PopulateKeys fills the DynamoDB keys and TTL from the run timestamp
func (r *ExtractionRun) PopulateKeys(retentionDays int) {
	r.PK = CreateRunPK(r.StartedAt)
	r.SK = CreateRunSK(r.StartedAt, r.RunID)
	if retentionDays > 0 {
		r.TTL = CalculateRunTTL(r.StartedAt, retentionDays)
	}
}

// Summary returns a one-line description suitable for logs
func (r *ExtractionRun) Summary() string {
	return fmt.Sprintf("run=%s handle=%s outcome=%s status=%d posts=%d strategy=%q attempts=%d duration=%dms",
		r.RunID, r.Handle, r.Outcome, r.StatusCode, r.PostsReturned, r.WinningStrategy, len(r.Attempts), r.DurationMS)
}

// CreateRunPK partitions runs by UTC day
func CreateRunPK(startedAt time.Time) string {
	return "RUN#" + startedAt.UTC().Format("2006-01-02")
}

// CreateRunSK orders runs inside a day partition
func CreateRunSK(startedAt time.Time, runID string) string {
	return startedAt.UTC().Format(time.RFC3339) + "#" + runID
}

// CreateRunReportKey builds the S3 key of an archived run report
func CreateRunReportKey(startedAt time.Time, runID string) string {
	return fmt.Sprintf("extraction-runs/%s/%s.json", startedAt.UTC().Format("2006-01-02"), runID)
}

// CalculateRunTTL calculates the expiry timestamp for a run record
func CalculateRunTTL(startedAt time.Time, retentionDays int) int64 {
	return startedAt.AddDate(0, 0, retentionDays).Unix()
}
