package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxPosts is the maximum number of posts returned to clients
const MaxPosts = 9

// DefaultBaseURL is the public Instagram origin
const DefaultBaseURL = "https://www.instagram.com"

// PostSummary is the normalized, client-facing post record
type PostSummary struct {
	Image    string `json:"image"`
	Caption  string `json:"caption"`
	Link     string `json:"link"`
	Likes    int    `json:"likes"`
	Comments int    `json:"comments"`
}

// NodeShape tells which historical layout a raw node was extracted from
type NodeShape string

const (
	ShapeFlat NodeShape = "flat" // plain node object
	ShapeEdge NodeShape = "edge" // {"node": {...}} wrapper
)

// RawNode is an unnormalized post record as extracted by a strategy.
// Fields are looked up by ordered alias lists since the upstream layout drifts.
type RawNode struct {
	Shape  NodeShape
	fields map[string]interface{}
}

// NewRawNode builds a RawNode from a decoded JSON value, unwrapping the edge shape.
// It returns false when the value is not an object.
func NewRawNode(v interface{}) (RawNode, bool) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return RawNode{}, false
	}

	if inner, ok := obj["node"].(map[string]interface{}); ok {
		return RawNode{Shape: ShapeEdge, fields: inner}, true
	}

	return RawNode{Shape: ShapeFlat, fields: obj}, true
}

// NewFlatNode builds a flat node from explicit fields
func NewFlatNode(fields map[string]interface{}) RawNode {
	return RawNode{Shape: ShapeFlat, fields: fields}
}

// RawNodesFromEdges converts a decoded edge list into raw nodes, skipping non-objects
func RawNodesFromEdges(edges []interface{}) []RawNode {
	nodes := make([]RawNode, 0, len(edges))
	for _, edge := range edges {
		if node, ok := NewRawNode(edge); ok {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// Lookup resolves a dotted path ("edge_liked_by.count", "candidates[0].url") inside the node
func (n RawNode) Lookup(path string) (interface{}, bool) {
	return LookupPath(n.fields, path)
}

// FirstString returns the first alias that resolves to a non-empty string
func (n RawNode) FirstString(aliases ...string) (string, bool) {
	for _, alias := range aliases {
		v, ok := n.Lookup(alias)
		if !ok {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s, true
			}
		case map[string]interface{}:
			// newer payloads wrap captions as {"text": "..."}
			if text, ok := s["text"].(string); ok && text != "" {
				return text, true
			}
		}
	}
	return "", false
}

// FirstCount returns the first alias that resolves to a number, clamped at zero
func (n RawNode) FirstCount(aliases ...string) int {
	for _, alias := range aliases {
		v, ok := n.Lookup(alias)
		if !ok {
			continue
		}
		if count, ok := toCount(v); ok {
			return count
		}
	}
	return 0
}

// LookupPath walks a decoded JSON document following a dotted path with optional [i] indexes
func LookupPath(doc interface{}, path string) (interface{}, bool) {
	current := doc
	for _, segment := range strings.Split(path, ".") {
		key, indexes, err := splitSegment(segment)
		if err != nil {
			return nil, false
		}

		if key != "" {
			obj, ok := current.(map[string]interface{})
			if !ok {
				return nil, false
			}
			current, ok = obj[key]
			if !ok || current == nil {
				return nil, false
			}
		}

		for _, idx := range indexes {
			list, ok := current.([]interface{})
			if !ok || idx >= len(list) {
				return nil, false
			}
			current = list[idx]
			if current == nil {
				return nil, false
			}
		}
	}
	return current, true
}

// splitSegment parses "name[0][1]" into its key and indexes
func splitSegment(segment string) (string, []int, error) {
	open := strings.IndexByte(segment, '[')
	if open < 0 {
		return segment, nil, nil
	}

	key := segment[:open]
	rest := segment[open:]
	var indexes []int
	for rest != "" {
		end := strings.IndexByte(rest, ']')
		if rest[0] != '[' || end < 0 {
			return "", nil, fmt.Errorf("malformed path segment %q", segment)
		}
		idx, err := strconv.Atoi(rest[1:end])
		if err != nil || idx < 0 {
			return "", nil, fmt.Errorf("malformed index in %q", segment)
		}
		indexes = append(indexes, idx)
		rest = rest[end+1:]
	}
	return key, indexes, nil
}

// toCount converts JSON numeric representations into a non-negative int
func toCount(v interface{}) (int, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f < 0 {
		return 0, true
	}
	if f > math.MaxInt32 {
		return math.MaxInt32, true
	}
	return int(f), true
}

// ProfileURL returns the canonical profile page for a handle
func ProfileURL(handle string) string {
	return fmt.Sprintf("%s/%s/", DefaultBaseURL, handle)
}

// PermalinkURL returns the canonical post permalink for a shortcode
func PermalinkURL(shortcode string) string {
	return fmt.Sprintf("%s/p/%s/", DefaultBaseURL, shortcode)
}
