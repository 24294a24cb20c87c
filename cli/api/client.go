// Package api is the gateway client used by the agentlab CLI.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 330 * time.Second, // above the gateway's own lab timeout
		},
	}
}

type HealthReport struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Timestamp  string                     `json:"timestamp"`
}

type ComponentHealth struct {
	Status    string `json:"status"`
	Details   string `json:"details,omitempty"`
	LatencyMS int64  `json:"latency_ms,omitempty"`
}

type NodeState struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Output   string `json:"output,omitempty"`
	Position int    `json:"position"`
}

type ExecutionMetrics struct {
	LatencyMS int64 `json:"latency_ms"`
	Tokens    int   `json:"tokens_generated,omitempty"`
	Steps     int   `json:"steps_total,omitempty"`
}

type ExecutionResult struct {
	Status  string           `json:"status"`
	Output  string           `json:"output"`
	Metrics ExecutionMetrics `json:"metrics"`
	Flow    []NodeState      `json:"flow,omitempty"`
}

type ModelSpec struct {
	Name          string `json:"name"`
	Provider      string `json:"provider,omitempty"`
	ContextTokens int    `json:"context_tokens,omitempty"`
	Default       bool   `json:"default,omitempty"`
}

type Catalog struct {
	Models []ModelSpec `json:"models"`
}

func (c *Client) Health() (*HealthReport, error) {
	var report HealthReport
	if err := c.get("/api/v1/health/detailed", &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *Client) Ready() (string, bool, error) {
	resp, err := c.HTTPClient.Get(c.BaseURL + "/api/v1/ready")
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", false, fmt.Errorf("decode response: %w", err)
	}
	return body.Status, resp.StatusCode == http.StatusOK, nil
}

func (c *Client) Execute(req map[string]interface{}) (*ExecutionResult, error) {
	var result ExecutionResult
	if err := c.post("/api/v1/execute", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Models() (*Catalog, error) {
	var catalog Catalog
	if err := c.get("/api/v1/models", &catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}

func (c *Client) Version() (string, error) {
	var body struct {
		Version string `json:"version"`
	}
	if err := c.get("/api/v1/version", &body); err != nil {
		return "", err
	}
	return body.Version, nil
}

func (c *Client) get(path string, out interface{}) error {
	resp, err := c.HTTPClient.Get(c.BaseURL + path)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func (c *Client) post(path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	resp, err := c.HTTPClient.Post(c.BaseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func decode(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("api %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
