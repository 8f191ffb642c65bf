// Package backend is the web tier's only route to the external REST backend.
// Client attaches credentials and encodes bodies; Resource layers the tolerant
// CRUD contract on top; Services bundles one Resource per entity.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dq/internal/adapters/http/perf"
)

// DefaultErrorMessage is used when a non-2xx response carries no message field.
const DefaultErrorMessage = "Network response was not ok"

// DefaultTimeout bounds a single upstream call.
const DefaultTimeout = 15 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// StatusOf returns the upstream status carried by err, or 0 when err is not an APIError.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// TokenSource yields the bearer token for a request. Empty means no Authorization header.
type TokenSource func(ctx context.Context) string

type ctxKey int

const (
	langKey ctxKey = iota
	tokenKey
)

// WithLanguage returns a context whose upstream calls send Accept-Language: lang.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey, lang)
}

// LanguageFrom returns the language stored by WithLanguage.
func LanguageFrom(ctx context.Context) string {
	lang, _ := ctx.Value(langKey).(string)
	return lang
}

// WithToken returns a context that overrides the client's default bearer token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// StaticToken returns a TokenSource that prefers a per-request WithToken value
// and falls back to token.
func StaticToken(token string) TokenSource {
	return func(ctx context.Context) string {
		if t, ok := ctx.Value(tokenKey).(string); ok && t != "" {
			return t
		}
		return token
	}
}

// Client performs requests against the backend base URL.
type Client struct {
	baseURL   string
	http      *http.Client
	token     TokenSource
	collector *perf.Collector
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenSource sets how bearer tokens are obtained.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.token = ts }
}

// WithCollector records every upstream call into the perf collector.
func WithCollector(pc *perf.Collector) Option {
	return func(c *Client) { c.collector = pc }
}

// NewClient creates a client for the backend at baseURL.
// PRE: baseURL is an absolute http(s) URL
// POST: Returns a client with DefaultTimeout and the per-request token source
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		token:   StaticToken(""),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response is a successful backend response.
type Response struct {
	Status int
	Body   []byte
}

// Do sends a request to path with the given query and body.
// A *Payload body is sent as multipart when it holds files and as JSON otherwise;
// any other non-nil body is JSON encoded.
// PRE: path starts with "/"
// POST: 2xx → Response; non-2xx → *APIError; transport failure → wrapped error
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	reader, contentType, err := encodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if lang := LanguageFrom(ctx); lang != "" {
		req.Header.Set("Accept-Language", lang)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.collector.RecordSince(perf.KindUpstream, method+" "+path, 0, start)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.collector.RecordSince(perf.KindUpstream, method+" "+path, resp.StatusCode, start)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(data)}
	}
	return &Response{Status: resp.StatusCode, Body: data}, nil
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *Payload:
		return b.Encode()
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func errorMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}
	return DefaultErrorMessage
}
