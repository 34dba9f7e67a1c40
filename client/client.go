// Package client talks to the image conversion service over HTTP.
//
// The service exposes two endpoints: POST /convert returns the finished
// document in one JSON response, and POST /convert/stream returns the
// generation as a live byte stream for incremental interpretation.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pagesmith-io/pagesmith/types"
)

// DefaultTimeout is the request timeout for the non-streaming endpoint.
// Streaming requests are bounded by the caller's context instead.
const DefaultTimeout = 120 * time.Second

// RequestIDHeader carries the caller-chosen request ID to the service.
const RequestIDHeader = "X-Request-ID"

// Config configures the conversion client.
type Config struct {
	// BaseURL is the service root, e.g. "http://localhost:8000" (required).
	BaseURL string
	// Timeout bounds non-streaming requests (default 120s).
	Timeout time.Duration
}

// Client issues conversion requests against one service instance.
type Client struct {
	baseURL string
	http    *http.Client
	stream  *http.Client
}

// New creates a client from the given config.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("client requires a base URL")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("client: invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("client: unsupported scheme %q", u.Scheme)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		baseURL: u.String(),
		http:    &http.Client{Timeout: cfg.Timeout},
		// No client timeout on the streaming transport: a generation may
		// legitimately run for minutes, and the context bounds it.
		stream: &http.Client{},
	}, nil
}

// Request describes one conversion.
type Request struct {
	// ImagePath is the screenshot or mockup to convert (required).
	ImagePath string
	// Meta carries the request ID and heuristic flag.
	Meta types.ConversionMeta
}

// Convert runs a blocking conversion and returns the finished document.
func (c *Client) Convert(ctx context.Context, req Request) (*types.ConvertResult, error) {
	body, contentType, err := buildForm(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := c.newRequest(ctx, "/convert", body, contentType, req.Meta)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: "convert", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newStatusError("convert", resp)
	}

	var result types.ConvertResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &TransportError{Op: "convert", Err: fmt.Errorf("decode response: %w", err)}
	}
	return &result, nil
}

// ConvertStream starts a streaming conversion and returns the response
// body. The caller owns the body and must close it; the stream stays open
// until the service finishes generating or ctx is canceled.
func (c *Client) ConvertStream(ctx context.Context, req Request) (io.ReadCloser, error) {
	body, contentType, err := buildForm(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := c.newRequest(ctx, "/convert/stream", body, contentType, req.Meta)
	if err != nil {
		return nil, err
	}

	resp, err := c.stream.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: "convert/stream", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := newStatusError("convert/stream", resp)
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) newRequest(ctx context.Context, path string, body *bytes.Buffer, contentType string, meta types.ConversionMeta) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("client: create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if meta.RequestID != "" {
		req.Header.Set(RequestIDHeader, meta.RequestID)
	}
	return req, nil
}

// buildForm assembles the multipart body: the image file part plus the
// use_heuristic form field.
func buildForm(req Request) (*bytes.Buffer, string, error) {
	if req.ImagePath == "" {
		return nil, "", errors.New("client: image path is required")
	}

	f, err := os.Open(req.ImagePath)
	if err != nil {
		return nil, "", fmt.Errorf("client: open image: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("image", filepath.Base(req.ImagePath))
	if err != nil {
		return nil, "", fmt.Errorf("client: create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("client: read image: %w", err)
	}
	if err := w.WriteField("use_heuristic", strconv.FormatBool(req.Meta.Heuristic)); err != nil {
		return nil, "", fmt.Errorf("client: write form field: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("client: finalize form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
