package lab

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
)

// Client is a thin HTTP wrapper around the Lab Service's inference and
// orchestration endpoints. It is safe for concurrent use; every call is
// independent and carries no cross-request state.
type Client struct {
	base         string
	timeout      time.Duration
	probeTimeout time.Duration
	http         *http.Client
}

func NewClient(addr string, timeout, probeTimeout time.Duration) *Client {
	return &Client{
		base:         strings.TrimRight(addr, "/"),
		timeout:      timeout,
		probeTimeout: probeTimeout,
		http:         &http.Client{},
	}
}

// Infer runs a single-shot model inference.
func (c *Client) Infer(ctx context.Context, req InferenceRequest) (*InferenceResponse, error) {
	var out InferenceResponse
	if err := c.post(ctx, "inference", "/inference/", req, &out); err != nil {
		return nil, err
	}
	if out.Text == "" && out.Error == "" {
		return nil, &Error{Op: "inference", Kind: KindMalformed, Err: errors.New("response carries neither text nor error")}
	}
	return &out, nil
}

// Orchestrate runs a multi-step workflow and returns the ordered node
// outcomes.
func (c *Client) Orchestrate(ctx context.Context, req OrchestrationRequest) (*OrchestrationResponse, error) {
	var out OrchestrationResponse
	if err := c.post(ctx, "orchestrate", "/orchestrate/", req, &out); err != nil {
		return nil, err
	}
	if out.Error == "" && len(out.Nodes) == 0 {
		return nil, &Error{Op: "orchestrate", Kind: KindMalformed, Err: errors.New("response carries no nodes")}
	}
	for i, n := range out.Nodes {
		if n.Name == "" {
			return nil, &Error{Op: "orchestrate", Kind: KindMalformed, Err: fmt.Errorf("node %d has no name", i)}
		}
		if !knownNodeStatus(n.Status) {
			return nil, &Error{Op: "orchestrate", Kind: KindMalformed, Err: fmt.Errorf("node %q has unknown status %q", n.Name, n.Status)}
		}
	}
	return &out, nil
}

func knownNodeStatus(s string) bool {
	switch s {
	case "pending", "running", "done", "failed":
		return true
	}
	return false
}

// Probe hits the lab's health endpoint and reports round-trip latency. It
// deliberately avoids the inference and orchestration paths so frequent
// probing never touches model-loading code.
func (c *Client) Probe(ctx context.Context) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/health", nil)
	if err != nil {
		return 0, &Error{Op: "probe", Kind: KindUnreachable, Err: err}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &Error{Op: "probe", Kind: KindUnreachable, Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	elapsed := time.Since(start)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return elapsed, &Error{Op: "probe", Kind: KindUpstreamError, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	return elapsed, nil
}

// post issues a JSON POST with the configured timeout. Connection-level
// failures are retried once; application errors (non-2xx) and timeouts
// are not, since a partially executed orchestration must not be replayed.
func (c *Client) post(ctx context.Context, op, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("lab %s: encode request: %w", op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var resp *http.Response
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
		if err != nil {
			return &Error{Op: op, Kind: KindUnreachable, Err: err}
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err = c.http.Do(req)
		if err == nil {
			break
		}
		if attempt > 0 || ctx.Err() != nil {
			return &Error{Op: op, Kind: KindUnreachable, Err: err}
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &Error{Op: op, Kind: KindUpstreamError, Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, Kind: KindMalformed, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
