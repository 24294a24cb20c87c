package model

// ExecutionType selects how the Lab Service satisfies a request. The
// router switches on it exhaustively; adding a mode means adding a
// constant here and a case there.
type ExecutionType string

const (
	ExecutionSimple       ExecutionType = "simple"
	ExecutionOrchestrator ExecutionType = "orchestrator"
)

// Known reports whether t is one of the supported execution types.
func (t ExecutionType) Known() bool {
	return t == ExecutionSimple || t == ExecutionOrchestrator
}

type ExecutionRequest struct {
	Prompt        string        `json:"prompt"`
	Model         string        `json:"model"`
	ExecutionType ExecutionType `json:"execution_type"`

	// Orchestrator-only configuration, relayed to the lab untouched.
	Agents []string `json:"agents,omitempty"`
	Tools  []string `json:"tools,omitempty"`

	// Simple-execution knobs, relayed to the lab untouched.
	Strategy    string   `json:"strategy,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
}

type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusPartial ResultStatus = "partial"
	StatusFailure ResultStatus = "failure"
)

type NodeStatus string

const (
	NodePending NodeStatus = "pending"
	NodeRunning NodeStatus = "running"
	NodeDone    NodeStatus = "done"
	NodeFailed  NodeStatus = "failed"
)

// NodeState is one step of an orchestrated workflow, relayed from the lab
// in its reported order and never mutated after receipt.
type NodeState struct {
	Name     string     `json:"name"`
	Status   NodeStatus `json:"status"`
	Output   string     `json:"output,omitempty"`
	Position int        `json:"position"`
}

type ExecutionMetrics struct {
	LatencyMS int64 `json:"latency_ms"`
	Tokens    int   `json:"tokens_generated,omitempty"`
	Steps     int   `json:"steps_total,omitempty"`
}

// ExecutionResult is the unified client-facing result for both execution
// types. Flow is empty for simple executions.
type ExecutionResult struct {
	Status  ResultStatus     `json:"status"`
	Output  string           `json:"output"`
	Metrics ExecutionMetrics `json:"metrics"`
	Flow    []NodeState      `json:"flow,omitempty"`
}
