package executor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"agentlab/api/lab"
	"agentlab/api/model"
)

// fakeLab is a counting double for the lab client.
type fakeLab struct {
	inferCalls       int
	orchestrateCalls int

	inferResp *lab.InferenceResponse
	inferErr  error

	orchResp *lab.OrchestrationResponse
	orchErr  error
}

func (f *fakeLab) Infer(ctx context.Context, req lab.InferenceRequest) (*lab.InferenceResponse, error) {
	f.inferCalls++
	return f.inferResp, f.inferErr
}

func (f *fakeLab) Orchestrate(ctx context.Context, req lab.OrchestrationRequest) (*lab.OrchestrationResponse, error) {
	f.orchestrateCalls++
	return f.orchResp, f.orchErr
}

type recordingSink struct {
	events []Event
}

func (s *recordingSink) Publish(evt Event) { s.events = append(s.events, evt) }

func simpleRequest() model.ExecutionRequest {
	return model.ExecutionRequest{
		Prompt:        "Name 3 prime numbers",
		Model:         "mistral7b",
		ExecutionType: model.ExecutionSimple,
	}
}

func TestExecuteSimple(t *testing.T) {
	fake := &fakeLab{
		inferResp: &lab.InferenceResponse{
			Text:    "2, 3, 5",
			Metrics: lab.InferenceMetrics{LatencyMS: 120},
		},
	}
	e := New(fake, nil)

	result, err := e.Execute(context.Background(), simpleRequest())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Status != model.StatusSuccess {
		t.Errorf("Status = %q", result.Status)
	}
	if result.Output != "2, 3, 5" {
		t.Errorf("Output = %q", result.Output)
	}
	if result.Metrics.LatencyMS != 120 {
		t.Errorf("LatencyMS = %d", result.Metrics.LatencyMS)
	}
	if len(result.Flow) != 0 {
		t.Errorf("simple execution must have no flow, got %d nodes", len(result.Flow))
	}
	if fake.inferCalls != 1 || fake.orchestrateCalls != 0 {
		t.Errorf("calls: infer=%d orchestrate=%d", fake.inferCalls, fake.orchestrateCalls)
	}
}

func TestExecuteOrchestrator(t *testing.T) {
	fake := &fakeLab{
		orchResp: &lab.OrchestrationResponse{
			Output: "done",
			Nodes: []lab.Node{
				{Name: "analyzer", Status: "done", Output: "a"},
				{Name: "monitor", Status: "done", Output: "m"},
			},
			Metrics: lab.OrchestrationMetrics{LatencyMS: 900},
		},
	}
	e := New(fake, nil)

	req := simpleRequest()
	req.ExecutionType = model.ExecutionOrchestrator
	result, err := e.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Status != model.StatusSuccess {
		t.Errorf("Status = %q", result.Status)
	}
	if len(result.Flow) != 2 {
		t.Fatalf("flow length = %d, want 2", len(result.Flow))
	}
	if fake.orchestrateCalls != 1 || fake.inferCalls != 0 {
		t.Errorf("calls: infer=%d orchestrate=%d", fake.inferCalls, fake.orchestrateCalls)
	}
}

func TestExecuteUnknownType(t *testing.T) {
	fake := &fakeLab{}
	e := New(fake, nil)

	req := simpleRequest()
	req.ExecutionType = "challenge"
	_, err := e.Execute(context.Background(), req)
	if !errors.Is(err, ErrUnknownExecutionType) {
		t.Fatalf("err = %v, want ErrUnknownExecutionType", err)
	}
	if fake.inferCalls != 0 || fake.orchestrateCalls != 0 {
		t.Errorf("unroutable request must make zero upstream calls, got infer=%d orchestrate=%d",
			fake.inferCalls, fake.orchestrateCalls)
	}
}

func TestExecuteUpstreamFailureBecomesTypedResult(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantText string
	}{
		{
			"unreachable",
			&lab.Error{Op: "inference", Kind: lab.KindUnreachable, Err: errors.New("connection refused")},
			"unreachable",
		},
		{
			"upstream error",
			&lab.Error{Op: "inference", Kind: lab.KindUpstreamError, Err: errors.New("status 500")},
			"reported an error",
		},
		{
			"malformed",
			&lab.Error{Op: "inference", Kind: lab.KindMalformed, Err: errors.New("decode")},
			"unexpected response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(&fakeLab{inferErr: tt.err}, nil)
			result, err := e.Execute(context.Background(), simpleRequest())
			if err != nil {
				t.Fatalf("upstream trouble must not escape as an error: %v", err)
			}
			if result.Status != model.StatusFailure {
				t.Errorf("Status = %q, want failure", result.Status)
			}
			if !strings.Contains(result.Output, tt.wantText) {
				t.Errorf("Output = %q, want mention of %q", result.Output, tt.wantText)
			}
		})
	}
}

func TestExecutePublishesEvents(t *testing.T) {
	sink := &recordingSink{}
	e := New(&fakeLab{inferResp: &lab.InferenceResponse{Text: "ok"}}, sink)

	if _, err := e.Execute(context.Background(), simpleRequest()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(sink.events) != 2 {
		t.Fatalf("got %d events, want start+finish", len(sink.events))
	}
	if sink.events[0].Type != "execution.start" || sink.events[1].Type != "execution.finish" {
		t.Errorf("event types = %q, %q", sink.events[0].Type, sink.events[1].Type)
	}
	if sink.events[0].ExecutionID == "" || sink.events[0].ExecutionID != sink.events[1].ExecutionID {
		t.Error("events must share one execution id")
	}
}
