package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"profile-feed-api/internal/models"
)

// ExtractionStrategy is one self-contained heuristic for locating recent posts.
// An empty result with a nil error is a valid "no result".
type ExtractionStrategy interface {
	Name() string
	Extract(ctx context.Context, handle string) ([]models.RawNode, error)
}

// ProfileSource is the upstream surface the strategies read from
type ProfileSource interface {
	BaseURL() string
	FetchProfileData(ctx context.Context, handle string) (map[string]interface{}, error)
	FetchProfilePage(ctx context.Context, handle string, profile HeaderProfile) (string, error)
}

// Strategy names, also used in the run log
const (
	StrategyStructuredEndpoint = "structured_endpoint"
	StrategyEmbeddedScript     = "embedded_script"
	StrategyStructuredMetadata = "structured_metadata"
)

// DefaultStrategies returns the strategies in priority order
func DefaultStrategies(source ProfileSource) []ExtractionStrategy {
	return []ExtractionStrategy{
		NewStructuredEndpointStrategy(source),
		NewEmbeddedScriptStrategy(source),
		NewStructuredMetadataStrategy(source),
	}
}

// StructuredEndpointStrategy reads the profile JSON endpoint used by the web app
type StructuredEndpointStrategy struct {
	source ProfileSource
}

// structuredEndpointPaths lists where the timeline edges have lived in the endpoint payload
var structuredEndpointPaths = []string{
	"graphql.user.edge_owner_to_timeline_media.edges",
	"data.user.edge_owner_to_timeline_media.edges",
}

// NewStructuredEndpointStrategy creates the structured endpoint strategy
func NewStructuredEndpointStrategy(source ProfileSource) *StructuredEndpointStrategy {
	return &StructuredEndpointStrategy{source: source}
}

// Name returns the strategy name
func (s *StructuredEndpointStrategy) Name() string { return StrategyStructuredEndpoint }

// Extract fetches the endpoint and resolves the timeline edge list
func (s *StructuredEndpointStrategy) Extract(ctx context.Context, handle string) ([]models.RawNode, error) {
	data, err := s.source.FetchProfileData(ctx, handle)
	if err != nil {
		return nil, err
	}

	for _, path := range structuredEndpointPaths {
		if nodes := edgesAt(data, path); len(nodes) > 0 {
			return nodes, nil
		}
	}

	return nil, fmt.Errorf("%w: no timeline edges in profile data", ErrExtractionMismatch)
}

// EmbeddedScriptStrategy scrapes JSON blobs historically inlined into the profile page
type EmbeddedScriptStrategy struct {
	source ProfileSource
}

// embeddedPatterns are tried in order; each captures a JSON object in group 1
var embeddedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`window\._sharedData\s*=\s*(\{.+?\});`),
	regexp.MustCompile(`<script type="text/javascript">window\._sharedData = (\{.+?\});</script>`),
	regexp.MustCompile(`window\.__additionalDataLoaded\s*\(\s*[^,]+,\s*(\{.+?\})\s*\)`),
	regexp.MustCompile(`"entry_data":\s*(\{.+?\})\s*,\s*"hostname"`),
}

// embeddedPaths are probed against each parsed capture: timeline media first, then discover media.
// The shorter forms match captures that are already the inner object.
var embeddedPaths = []string{
	"entry_data.ProfilePage[0].graphql.user.edge_owner_to_timeline_media.edges",
	"entry_data.ProfilePage[0].graphql.user.edge_web_discover_media.edges",
	"ProfilePage[0].graphql.user.edge_owner_to_timeline_media.edges",
	"ProfilePage[0].graphql.user.edge_web_discover_media.edges",
	"graphql.user.edge_owner_to_timeline_media.edges",
	"graphql.user.edge_web_discover_media.edges",
}

// NewEmbeddedScriptStrategy creates the embedded script strategy
func NewEmbeddedScriptStrategy(source ProfileSource) *EmbeddedScriptStrategy {
	return &EmbeddedScriptStrategy{source: source}
}

// Name returns the strategy name
func (s *EmbeddedScriptStrategy) Name() string { return StrategyEmbeddedScript }

// Extract fetches the profile page and scans it with the embedded patterns
func (s *EmbeddedScriptStrategy) Extract(ctx context.Context, handle string) ([]models.RawNode, error) {
	page, err := s.source.FetchProfilePage(ctx, handle, HeadersDocument)
	if err != nil {
		return nil, err
	}

	nodes, err := ExtractEmbeddedEdges(page)
	if err != nil {
		return nil, withPageSample(err, page)
	}
	return nodes, nil
}

// ExtractEmbeddedEdges applies the embedded patterns to an HTML document.
// Parse failures of one capture are logged and the next pattern is tried.
func ExtractEmbeddedEdges(page string) ([]models.RawNode, error) {
	matched := 0
	malformed := 0

	for i, pattern := range embeddedPatterns {
		match := pattern.FindStringSubmatch(page)
		if match == nil {
			continue
		}
		matched++

		var doc interface{}
		decoder := json.NewDecoder(strings.NewReader(match[1]))
		decoder.UseNumber()
		if err := decoder.Decode(&doc); err != nil {
			malformed++
			log.Printf("[STRATEGY] %s: pattern %d capture failed to parse: %v", StrategyEmbeddedScript, i, err)
			continue
		}

		for _, path := range embeddedPaths {
			if nodes := edgesAt(doc, path); len(nodes) > 0 {
				return nodes, nil
			}
		}
	}

	switch {
	case matched == 0:
		return nil, fmt.Errorf("%w: no embedded data pattern matched", ErrExtractionMismatch)
	case malformed == matched:
		return nil, fmt.Errorf("%w: all %d embedded captures failed to parse", ErrMalformedPayload, matched)
	default:
		return nil, fmt.Errorf("%w: %d embedded captures held no post edges", ErrExtractionMismatch, matched)
	}
}

// StructuredMetadataStrategy checks the page's linked-data block and, when the profile
// statistics are present, synthesizes a generic placeholder node pointing at the profile
type StructuredMetadataStrategy struct {
	source ProfileSource
}

// NewStructuredMetadataStrategy creates the structured metadata strategy
func NewStructuredMetadataStrategy(source ProfileSource) *StructuredMetadataStrategy {
	return &StructuredMetadataStrategy{source: source}
}

// Name returns the strategy name
func (s *StructuredMetadataStrategy) Name() string { return StrategyStructuredMetadata }

// Extract fetches the profile page and inspects its JSON-LD blocks
func (s *StructuredMetadataStrategy) Extract(ctx context.Context, handle string) ([]models.RawNode, error) {
	page, err := s.source.FetchProfilePage(ctx, handle, HeadersMinimal)
	if err != nil {
		return nil, err
	}

	found, err := HasProfileStatistics(page)
	if err != nil {
		return nil, withPageSample(err, page)
	}
	if !found {
		return nil, withPageSample(fmt.Errorf("%w: no linked-data block with interaction statistics", ErrExtractionMismatch), page)
	}

	return []models.RawNode{models.ProfilePlaceholderNode(s.source.BaseURL(), handle)}, nil
}

// HasProfileStatistics reports whether any JSON-LD block carries
// mainEntityofPage.interactionStatistic. The value itself is not used.
func HasProfileStatistics(page string) (bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return false, fmt.Errorf("%w: failed to parse page: %v", ErrMalformedPayload, err)
	}

	found := false
	blocks := 0
	malformed := 0
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}
		blocks++

		var probe interface{}
		if err := json.Unmarshal([]byte(raw), &probe); err != nil {
			malformed++
			log.Printf("[STRATEGY] %s: linked-data block failed to parse: %v", StrategyStructuredMetadata, err)
			return true
		}

		if _, ok := models.LookupPath(probe, "mainEntityofPage.interactionStatistic"); ok {
			found = true
			return false
		}
		return true
	})

	if !found && blocks > 0 && malformed == blocks {
		return false, fmt.Errorf("%w: all %d linked-data blocks failed to parse", ErrMalformedPayload, blocks)
	}
	return found, nil
}

// edgesAt resolves an edge list at path and converts it to raw nodes
func edgesAt(doc interface{}, path string) []models.RawNode {
	v, ok := models.LookupPath(doc, path)
	if !ok {
		return nil
	}
	edges, ok := v.([]interface{})
	if !ok {
		return nil
	}
	return models.RawNodesFromEdges(edges)
}

// pageSampleLimit caps the page head kept for drift diagnostics
const pageSampleLimit = 4096

// pageSampleError carries the head of the page that failed extraction
type pageSampleError struct {
	err    error
	sample string
}

func (e *pageSampleError) Error() string { return e.err.Error() }
func (e *pageSampleError) Unwrap() error { return e.err }

func withPageSample(err error, page string) error {
	sample := page
	if len(sample) > pageSampleLimit {
		sample = sample[:pageSampleLimit]
	}
	return &pageSampleError{err: err, sample: sample}
}

// pageSample returns the page head attached to err, if any
func pageSample(err error) string {
	var pse *pageSampleError
	if errors.As(err, &pse) {
		return pse.sample
	}
	return ""
}
