// Package remote is a client for a Piston-compatible remote execution API:
// one JSON POST carrying the program files and stdin, one JSON reply
// carrying the compile and run stages.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	DefaultURL            = "https://emkc.org/api/v2/piston/execute"
	DefaultMaxBodySize    = 1 << 20 // 1MB
	DefaultRequestTimeout = 30 * time.Second
)

type Config struct {
	URL            string
	MaxBodySize    int64
	RequestTimeout time.Duration
}

// File is one source file of a request. Name may be empty, in which case
// the service picks one.
type File struct {
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

type Request struct {
	Language string `json:"language"`
	Version  string `json:"version"`
	Files    []File `json:"files"`
	Stdin    string `json:"stdin"`
}

// Stage is the outcome of the compile or run step.
type Stage struct {
	Stdout string  `json:"stdout"`
	Stderr string  `json:"stderr"`
	Output string  `json:"output"`
	Code   *int    `json:"code"`
	Signal *string `json:"signal"`
}

// Failed reports whether the stage exited non-zero or was killed.
func (s *Stage) Failed() bool {
	if s == nil {
		return false
	}
	return (s.Code != nil && *s.Code != 0) || (s.Signal != nil && *s.Signal != "")
}

type Response struct {
	Language string `json:"language"`
	Version  string `json:"version"`
	Run      *Stage `json:"run"`
	Compile  *Stage `json:"compile"`
	Message  string `json:"message"`
}

type Client struct {
	cfg    Config
	client *http.Client
}

func New(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

// URL returns the endpoint requests are sent to.
func (c *Client) URL() string {
	return c.cfg.URL
}

// Execute submits req and decodes the reply. A reply without a run stage
// is not an error here; callers decide what that means.
func (c *Client) Execute(ctx context.Context, req Request) (*Response, error) {
	parsed, err := url.Parse(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("scheme must be http or https")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("unexpected status %s", resp.Status)
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= 300 {
		if out.Message != "" {
			return nil, fmt.Errorf("unexpected status %s: %s", resp.Status, out.Message)
		}
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return &out, nil
}
