package services

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"profile-feed-api/internal/models"
)

// defaultMaxBodyBytes bounds how much of an upstream response is read
const defaultMaxBodyBytes = 8 << 20

// desktopUserAgent mimics a current desktop Chrome
const desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// HeaderProfile selects the set of browser-like headers sent upstream
type HeaderProfile int

const (
	// HeadersAPI mimics the web app's XHR calls to the profile data endpoint
	HeadersAPI HeaderProfile = iota
	// HeadersDocument mimics a top-level page navigation
	HeadersDocument
	// HeadersMinimal sends only a user agent
	HeadersMinimal
)

// InstagramClient fetches public profile resources without credentials
type InstagramClient struct {
	httpClient   *http.Client
	baseURL      string
	userAgent    string
	maxBodyBytes int64
	debug        bool
}

// InstagramClientConfig holds configuration for the client
type InstagramClientConfig struct {
	BaseURL      string
	UserAgent    string
	Debug        bool
	MaxBodyBytes int64        // longer bodies are truncated and logged
	HTTPClient   *http.Client // overrides the default transport, mostly for tests
}

// NewInstagramClient creates a client with browser-like TLS settings.
// Per-call deadlines come from the caller's context.
func NewInstagramClient(cfg InstagramClientConfig) *InstagramClient {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		transport := &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			IdleConnTimeout: 90 * time.Second,
		}
		httpClient = &http.Client{
			Timeout:   30 * time.Second, // upper bound, the pipeline sets tighter deadlines
			Transport: transport,
		}
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = models.DefaultBaseURL
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = desktopUserAgent
	}

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}

	return &InstagramClient{
		httpClient:   httpClient,
		baseURL:      baseURL,
		userAgent:    userAgent,
		maxBodyBytes: maxBodyBytes,
		debug:        cfg.Debug,
	}
}

// BaseURL returns the upstream origin
func (c *InstagramClient) BaseURL() string {
	return c.baseURL
}

// ProfileDataURL returns the semi-private JSON endpoint for a handle
func (c *InstagramClient) ProfileDataURL(handle string) string {
	return fmt.Sprintf("%s/%s/?__a=1&__d=dis", c.baseURL, handle)
}

// ProfilePageURL returns the public HTML page for a handle
func (c *InstagramClient) ProfilePageURL(handle string) string {
	return fmt.Sprintf("%s/%s/", c.baseURL, handle)
}

// FetchProfileData requests the profile JSON endpoint and decodes it
func (c *InstagramClient) FetchProfileData(ctx context.Context, handle string) (map[string]interface{}, error) {
	body, err := c.get(ctx, c.ProfileDataURL(handle), HeadersAPI)
	if err != nil {
		return nil, err
	}

	var data map[string]interface{}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: profile data is not JSON: %v", ErrMalformedPayload, err)
	}
	return data, nil
}

// FetchProfilePage requests the profile HTML page
func (c *InstagramClient) FetchProfilePage(ctx context.Context, handle string, profile HeaderProfile) (string, error) {
	body, err := c.get(ctx, c.ProfilePageURL(handle), profile)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// get performs a single GET; no retries are attempted
func (c *InstagramClient) get(ctx context.Context, url string, profile HeaderProfile) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req, profile)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: request to %s: %w", ErrUpstreamUnavailable, url, ctxErr)
		}
		return nil, fmt.Errorf("%w: request to %s: %v", ErrUpstreamUnavailable, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %s returned status %d", ErrUpstreamUnavailable, url, resp.StatusCode)
	}

	// We set Accept-Encoding ourselves, so the transport leaves gzip bodies alone
	var reader io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create gzip reader: %v", ErrUpstreamUnavailable, err)
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	// One byte past the cap tells a truncated body from one that fits exactly
	body, err := io.ReadAll(io.LimitReader(reader, c.maxBodyBytes+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: failed to read response from %s: %w", ErrUpstreamUnavailable, url, ctxErr)
		}
		return nil, fmt.Errorf("%w: failed to read response from %s: %w", ErrUpstreamUnavailable, url, err)
	}
	if int64(len(body)) > c.maxBodyBytes {
		body = body[:c.maxBodyBytes]
		log.Printf("[UPSTREAM] WARNING: response from %s exceeded %d bytes and was truncated", url, c.maxBodyBytes)
	}

	if c.debug {
		log.Printf("[UPSTREAM] GET %s -> %d (%d bytes, %v)", url, resp.StatusCode, len(body), time.Since(start))
	}

	return body, nil
}

// setHeaders sets realistic browser headers for the given profile
func (c *InstagramClient) setHeaders(req *http.Request, profile HeaderProfile) {
	req.Header.Set("User-Agent", c.userAgent)
	if profile == HeadersMinimal {
		return
	}

	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Connection", "keep-alive")

	switch profile {
	case HeadersAPI:
		req.Header.Set("Accept", "application/json, text/plain, */*")
		req.Header.Set("Sec-Fetch-Dest", "empty")
		req.Header.Set("Sec-Fetch-Mode", "cors")
		req.Header.Set("Sec-Fetch-Site", "same-origin")
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
		req.Header.Set("X-IG-App-ID", "936619743392459")
		req.Header.Set("X-IG-WWW-Claim", "0")
		req.Header.Set("X-ASBD-ID", "129477")
		req.Header.Set("X-CSRFToken", "missing")
		req.Header.Set("X-Instagram-AJAX", "1006632969")
	case HeadersDocument:
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8")
		req.Header.Set("Upgrade-Insecure-Requests", "1")
		req.Header.Set("Sec-Fetch-Dest", "document")
		req.Header.Set("Sec-Fetch-Mode", "navigate")
		req.Header.Set("Sec-Fetch-Site", "none")
		req.Header.Set("Cache-Control", "max-age=0")
	}
}
