package executor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"agentlab/api/lab"
	"agentlab/api/model"
)

// ErrUnknownExecutionType reports an execution type that passed input
// validation but is unrecognized here. The schema layer should make this
// impossible; reaching it is a programming-contract violation, surfaced
// as a 500 rather than a client error.
var ErrUnknownExecutionType = errors.New("unknown execution type")

// LabService is the slice of the lab client the executor needs. Declared
// here so tests can substitute a counting double.
type LabService interface {
	Infer(ctx context.Context, req lab.InferenceRequest) (*lab.InferenceResponse, error)
	Orchestrate(ctx context.Context, req lab.OrchestrationRequest) (*lab.OrchestrationResponse, error)
}

// Executor routes validated execution requests to the matching lab
// endpoint and normalizes both upstream response shapes into one result
// type. It guarantees every routable request produces a well-formed
// ExecutionResult; upstream trouble becomes a typed failure result, never
// an escaping fault.
type Executor struct {
	lab  LabService
	sink EventSink
}

func New(labService LabService, sink EventSink) *Executor {
	if sink == nil {
		sink = NopSink{}
	}
	return &Executor{lab: labService, sink: sink}
}

func (e *Executor) Execute(ctx context.Context, req model.ExecutionRequest) (model.ExecutionResult, error) {
	id := uuid.New().String()
	start := time.Now()

	e.sink.Publish(Event{Type: "execution.start", ExecutionID: id, Payload: map[string]interface{}{
		"executionType": req.ExecutionType,
		"model":         req.Model,
	}})

	var result model.ExecutionResult
	switch req.ExecutionType {
	case model.ExecutionSimple:
		result = e.runSimple(ctx, req)
	case model.ExecutionOrchestrator:
		result = e.runOrchestrator(ctx, req)
	default:
		log.Printf("executor: [%s] ALERT: unroutable execution_type %q passed validation", id, req.ExecutionType)
		return model.ExecutionResult{}, fmt.Errorf("%w: %q", ErrUnknownExecutionType, req.ExecutionType)
	}

	log.Printf("executor: [%s] type=%s model=%s status=%s elapsed=%s",
		id, req.ExecutionType, req.Model, result.Status, time.Since(start).Round(time.Millisecond))

	e.sink.Publish(Event{Type: "execution.finish", ExecutionID: id, Payload: map[string]interface{}{
		"status": result.Status,
	}})
	return result, nil
}

func (e *Executor) runSimple(ctx context.Context, req model.ExecutionRequest) model.ExecutionResult {
	resp, err := e.lab.Infer(ctx, lab.InferenceRequest{
		Prompt:      req.Prompt,
		Model:       req.Model,
		Strategy:    req.Strategy,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return failureResult(err)
	}
	return normalizeInference(resp)
}

func (e *Executor) runOrchestrator(ctx context.Context, req model.ExecutionRequest) model.ExecutionResult {
	resp, err := e.lab.Orchestrate(ctx, lab.OrchestrationRequest{
		Prompt: req.Prompt,
		Model:  req.Model,
		Agents: req.Agents,
		Tools:  req.Tools,
	})
	if err != nil {
		return failureResult(err)
	}
	return normalizeOrchestration(resp)
}

// failureResult translates a lab client error into a typed failure result
// with a per-kind message.
func failureResult(err error) model.ExecutionResult {
	var msg string
	switch lab.KindOf(err) {
	case lab.KindUnreachable:
		msg = "lab service is unreachable: " + err.Error()
	case lab.KindUpstreamError:
		msg = "lab service reported an error: " + err.Error()
	case lab.KindMalformed:
		msg = "lab service returned an unexpected response: " + err.Error()
	default:
		msg = "execution failed: " + err.Error()
	}
	return model.ExecutionResult{Status: model.StatusFailure, Output: msg}
}
