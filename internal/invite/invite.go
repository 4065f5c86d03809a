// Package invite talks to the backend that sends Abbot invitations.
//
// The backend exposes a single JSON endpoint (POST /api/sendInvite) that
// accepts {"channelId","platform"} and answers {"success","data"}, where data
// is a human readable message for the visitor.
package invite

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"abbot-web/internal/logging"
)

const (
	// DefaultEndpoint is used when Options.Endpoint is blank.
	DefaultEndpoint = "http://127.0.0.1:3000/api/sendInvite"
	// DefaultTimeout bounds a single dispatch.
	DefaultTimeout = 10 * time.Second

	defaultUserAgent = "abbot-web-invite-client/1.0"
	maxResponseBody  = 1 << 20
)

var (
	// ErrDispatch is the single failure kind of the dispatcher. Every error
	// returned by Dispatch matches it with errors.Is.
	ErrDispatch = errors.New("invite dispatch failed")
	// ErrUnavailable signals the backend could not be reached.
	ErrUnavailable = fmt.Errorf("%w: backend unavailable", ErrDispatch)
	// ErrRejected signals a non-2xx answer from the backend.
	ErrRejected = fmt.Errorf("%w: backend rejected the request", ErrDispatch)
	// ErrMalformedResponse signals a 2xx answer that is not the expected envelope.
	ErrMalformedResponse = fmt.Errorf("%w: malformed response", ErrDispatch)
)

// Request is the payload posted to the backend.
type Request struct {
	ChannelID string `json:"channelId"`
	Platform  string `json:"platform"`
}

// Response is the envelope returned by the backend.
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// Message renders Data as text: JSON strings are unquoted, anything else is
// returned as raw JSON.
func (r Response) Message() string {
	raw := bytes.TrimSpace(r.Data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return string(raw)
}

// Result is what callers see once the backend has answered.
type Result struct {
	Success bool
	Message string
}

// Options configures a Client.
type Options struct {
	Endpoint   string
	HTTPClient *http.Client
	Timeout    time.Duration
	UserAgent  string
	Logger     logging.Logger
}

// Client posts invitation requests to the backend endpoint.
type Client struct {
	endpoint  string
	http      *http.Client
	timeout   time.Duration
	userAgent string
	logger    logging.Logger
}

// NewClient builds a Client, filling defaults for blank options.
func NewClient(opts Options) *Client {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	return &Client{
		endpoint:  endpoint,
		http:      hc,
		timeout:   timeout,
		userAgent: ua,
		logger:    opts.Logger,
	}
}

// Endpoint reports the URL invitations are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Dispatch posts req to the backend. The identifier is sent exactly as given.
//
// A 2xx envelope is returned as a Result with a nil error, even when the
// backend reports success=false. Transport failures, non-2xx answers and
// undecodable bodies return an error matching ErrDispatch; for non-2xx answers
// the Result still carries the best message that could be extracted.
func (c *Client) Dispatch(ctx context.Context, req Request) (Result, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: encode request: %v", ErrDispatch, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("%w: build request: %v", ErrDispatch, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("%w: post invite: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return Result{}, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := rejectionMessage(resp, body)
		c.logf("backend answered %s for platform=%q: %s", resp.Status, req.Platform, msg)
		return Result{Success: false, Message: msg}, fmt.Errorf("%w: %s", ErrRejected, resp.Status)
	}

	var envelope Response
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return Result{Success: envelope.Success, Message: envelope.Message()}, nil
}

func (c *Client) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// rejectionMessage builds a human readable message from a non-2xx answer. The
// JSON envelope wins, then an HTML error page, then the status line.
func rejectionMessage(resp *http.Response, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope Response
		if err := json.Unmarshal(trimmed, &envelope); err == nil {
			if msg := strings.TrimSpace(envelope.Message()); msg != "" {
				return msg
			}
		}
	}
	if isHTML(resp.Header.Get("Content-Type"), trimmed) {
		if msg := htmlMessage(trimmed); msg != "" {
			return msg
		}
	}
	if len(trimmed) > 0 && len(trimmed) <= 200 && !isHTML("", trimmed) {
		return string(trimmed)
	}
	return resp.Status
}

func isHTML(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}
	return len(body) > 0 && body[0] == '<'
}

func htmlMessage(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1, h2").First().Text())
}
