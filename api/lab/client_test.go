package lab

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(url string) *Client {
	return NewClient(url, 2*time.Second, 500*time.Millisecond)
}

func TestInfer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference/" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %q", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"2, 3, 5","metrics":{"latency_ms":120}}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Infer(context.Background(), InferenceRequest{Prompt: "Name 3 prime numbers", Model: "mistral7b"})
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if resp.Text != "2, 3, 5" {
		t.Errorf("Text = %q", resp.Text)
	}
	if resp.Metrics.LatencyMS != 120 {
		t.Errorf("LatencyMS = %d", resp.Metrics.LatencyMS)
	}
}

func TestInfer_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close() // connection refused from here on

	_, err := newTestClient(url).Infer(context.Background(), InferenceRequest{Prompt: "hi", Model: "m"})
	if err == nil {
		t.Fatal("expected error")
	}
	if KindOf(err) != KindUnreachable {
		t.Errorf("kind = %q, want unreachable", KindOf(err))
	}
}

func TestInfer_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Infer(context.Background(), InferenceRequest{Prompt: "hi", Model: "m"})
	if KindOf(err) != KindUpstreamError {
		t.Errorf("kind = %q, want upstream_error (err: %v)", KindOf(err), err)
	}
}

func TestInfer_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Infer(context.Background(), InferenceRequest{Prompt: "hi", Model: "m"})
	if KindOf(err) != KindMalformed {
		t.Errorf("kind = %q, want malformed_response (err: %v)", KindOf(err), err)
	}
}

func TestInfer_MissingFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"metrics":{"latency_ms":5}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Infer(context.Background(), InferenceRequest{Prompt: "hi", Model: "m"})
	if KindOf(err) != KindMalformed {
		t.Errorf("kind = %q, want malformed_response (err: %v)", KindOf(err), err)
	}
}

func TestInfer_RetriesConnectionFailureOnce(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	var served int32
	go func() {
		// Kill the first connection before any bytes are exchanged, then
		// serve normally.
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		conn.Close()
		http.Serve(ln, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&served, 1)
			w.Write([]byte(`{"text":"ok","metrics":{"latency_ms":1}}`))
		}))
	}()

	resp, err := newTestClient("http://"+ln.Addr().String()).Infer(context.Background(), InferenceRequest{Prompt: "hi", Model: "m"})
	if err != nil {
		t.Fatalf("a single connection failure must be absorbed by the retry, got %v", err)
	}
	if resp.Text != "ok" {
		t.Errorf("Text = %q", resp.Text)
	}
	if n := atomic.LoadInt32(&served); n != 1 {
		t.Errorf("served %d requests, want exactly 1", n)
	}
}

func TestInfer_NoRetryOnUpstreamError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	newTestClient(srv.URL).Infer(context.Background(), InferenceRequest{Prompt: "hi", Model: "m"})
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("upstream called %d times, want 1 (application errors must not be retried)", n)
	}
}

func TestOrchestrate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orchestrate/" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{
			"output": "final answer",
			"nodes": [
				{"name":"analyzer","status":"done","output":"a"},
				{"name":"validator","status":"done","output":"v"}
			],
			"metrics": {"latency_ms": 900, "steps_total": 2}
		}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Orchestrate(context.Background(), OrchestrationRequest{Prompt: "hi", Model: "m"})
	if err != nil {
		t.Fatalf("Orchestrate: %v", err)
	}
	if len(resp.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(resp.Nodes))
	}
	if resp.Nodes[0].Name != "analyzer" || resp.Nodes[1].Name != "validator" {
		t.Errorf("node order not preserved: %+v", resp.Nodes)
	}
}

func TestOrchestrate_NoNodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"output":"x","nodes":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Orchestrate(context.Background(), OrchestrationRequest{Prompt: "hi", Model: "m"})
	if KindOf(err) != KindMalformed {
		t.Errorf("kind = %q, want malformed_response", KindOf(err))
	}
}

func TestOrchestrate_UnknownNodeStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"nodes":[{"name":"analyzer","status":"exploded"}]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Orchestrate(context.Background(), OrchestrationRequest{Prompt: "hi", Model: "m"})
	if KindOf(err) != KindMalformed {
		t.Errorf("kind = %q, want malformed_response", KindOf(err))
	}
}

func TestProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	latency, err := newTestClient(srv.URL).Probe(context.Background())
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if latency <= 0 {
		t.Errorf("latency = %s, want > 0", latency)
	}
}

func TestProbe_Down(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url).Probe(context.Background())
	if KindOf(err) != KindUnreachable {
		t.Errorf("kind = %q, want unreachable", KindOf(err))
	}
}

func TestProbe_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, 50*time.Millisecond)
	start := time.Now()
	_, err := c.Probe(context.Background())
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("probe took %s, should be bounded by its timeout", elapsed)
	}
}
