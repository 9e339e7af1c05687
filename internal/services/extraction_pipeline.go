package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"profile-feed-api/internal/models"
)

// DefaultStrategyTimeout bounds each strategy's outbound work
const DefaultStrategyTimeout = 8 * time.Second

// ExtractionPipeline runs strategies in priority order; the first non-empty result wins.
// It is the catch boundary for strategy failures: nothing a strategy does escapes as an error
// other than ErrTotalExtractionFailure.
type ExtractionPipeline struct {
	strategies []ExtractionStrategy
	timeout    time.Duration
}

// NewExtractionPipeline creates a pipeline over the given strategies
func NewExtractionPipeline(strategies []ExtractionStrategy, timeout time.Duration) *ExtractionPipeline {
	if timeout <= 0 {
		timeout = DefaultStrategyTimeout
	}
	return &ExtractionPipeline{
		strategies: strategies,
		timeout:    timeout,
	}
}

// Strategies returns the configured strategies in order
func (p *ExtractionPipeline) Strategies() []ExtractionStrategy {
	return p.strategies
}

// Run attempts every strategy until one yields nodes, recording each attempt on run.
// run may be nil when no diagnostics are wanted.
func (p *ExtractionPipeline) Run(ctx context.Context, handle string, run *models.ExtractionRun) ([]models.RawNode, error) {
	for _, strategy := range p.strategies {
		if err := ctx.Err(); err != nil {
			log.Printf("[PIPELINE] request context done before %s: %v", strategy.Name(), err)
			break
		}

		nodes, attempt, sample := p.attempt(ctx, strategy, handle)
		if run != nil {
			run.Attempts = append(run.Attempts, attempt)
			if sample != "" {
				run.PageSample = sample
			}
		}

		if len(nodes) > 0 {
			if run != nil {
				run.WinningStrategy = strategy.Name()
			}
			log.Printf("[PIPELINE] %s yielded %d nodes for %s", strategy.Name(), len(nodes), handle)
			return nodes, nil
		}
	}

	return nil, ErrTotalExtractionFailure
}

// attempt runs one strategy under its own deadline and converts every failure into "no result"
func (p *ExtractionPipeline) attempt(ctx context.Context, strategy ExtractionStrategy, handle string) (nodes []models.RawNode, attempt models.StrategyAttempt, sample string) {
	start := time.Now()
	attempt = models.StrategyAttempt{Strategy: strategy.Name()}

	strategyCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[STRATEGY] %s panicked: %v", strategy.Name(), r)
			nodes = nil
			attempt.Success = false
			attempt.NodesFound = 0
			attempt.ErrorKind = models.ErrorKindPanic
			attempt.Error = fmt.Sprint(r)
			attempt.DurationMS = time.Since(start).Milliseconds()
		}
	}()

	nodes, err := strategy.Extract(strategyCtx, handle)
	attempt.DurationMS = time.Since(start).Milliseconds()

	if err != nil {
		attempt.ErrorKind = ErrorKind(err)
		attempt.Error = err.Error()
		sample = pageSample(err)
		log.Printf("[STRATEGY] %s failed after %dms (%s): %v", strategy.Name(), attempt.DurationMS, attempt.ErrorKind, err)
		return nil, attempt, sample
	}

	if len(nodes) == 0 {
		attempt.ErrorKind = models.ErrorKindMismatch
		attempt.Error = "strategy returned no nodes"
		log.Printf("[STRATEGY] %s returned no nodes", strategy.Name())
		return nil, attempt, ""
	}

	attempt.Success = true
	attempt.NodesFound = len(nodes)
	return nodes, attempt, ""
}
