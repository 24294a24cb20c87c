package lab

// Wire types for the Lab Service's two endpoints. These shapes are
// internal to the client; handlers and clients of the gateway only ever
// see the unified model.ExecutionResult.

type InferenceRequest struct {
	Prompt      string   `json:"prompt"`
	Model       string   `json:"model"`
	Strategy    string   `json:"strategy,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
}

type InferenceMetrics struct {
	LatencyMS int64 `json:"latency_ms"`
	Tokens    int   `json:"tokens_generated,omitempty"`
}

type InferenceResponse struct {
	Text    string           `json:"text"`
	Error   string           `json:"error,omitempty"`
	Metrics InferenceMetrics `json:"metrics"`
}

type OrchestrationRequest struct {
	Prompt string   `json:"prompt"`
	Model  string   `json:"model"`
	Agents []string `json:"agents,omitempty"`
	Tools  []string `json:"tools,omitempty"`
}

// Node is one worker step reported by the orchestrator, in pipeline
// order (analyzer, monitor, executor, validator, ...).
type Node struct {
	Name   string `json:"name"`
	Status string `json:"status"` // pending, running, done, failed
	Output string `json:"output,omitempty"`
}

type OrchestrationMetrics struct {
	LatencyMS int64 `json:"latency_ms"`
	Tokens    int   `json:"tokens_generated,omitempty"`
	Steps     int   `json:"steps_total,omitempty"`
}

type OrchestrationResponse struct {
	Output  string               `json:"output,omitempty"`
	Error   string               `json:"error,omitempty"`
	Nodes   []Node               `json:"nodes"`
	Metrics OrchestrationMetrics `json:"metrics"`
}
