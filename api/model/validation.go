package model

import "fmt"

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

type ValidationFinding struct {
	Check    string   `json:"check"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Field    string   `json:"field,omitempty"`
}

type ValidationResult struct {
	Errors   int                 `json:"errors"`
	Warnings int                 `json:"warnings"`
	Findings []ValidationFinding `json:"findings"`
}

func (r *ValidationResult) Add(f ValidationFinding) {
	r.Findings = append(r.Findings, f)
	switch f.Severity {
	case SeverityError:
		r.Errors++
	case SeverityWarning:
		r.Warnings++
	}
}

func (r *ValidationResult) Valid() bool {
	return r.Errors == 0
}

// ApplyDefaults fills fields the client may omit: execution_type defaults
// to simple and model to the catalog default. Unknown values are never
// defaulted away; they fail validation instead.
func (req *ExecutionRequest) ApplyDefaults(catalog *Catalog) {
	if req.ExecutionType == "" {
		req.ExecutionType = ExecutionSimple
	}
	if req.Model == "" && catalog != nil {
		req.Model = catalog.Default()
	}
}

// ValidateExecutionRequest checks an inbound execution request against the
// model catalog. All findings are collected so the client sees every
// problem at once.
func ValidateExecutionRequest(req *ExecutionRequest, catalog *Catalog) *ValidationResult {
	r := &ValidationResult{}

	if req.Prompt == "" {
		r.Add(ValidationFinding{
			Check:    "prompt.required",
			Severity: SeverityError,
			Message:  "prompt must not be empty",
			Field:    "prompt",
		})
	}

	if !req.ExecutionType.Known() {
		r.Add(ValidationFinding{
			Check:    "execution_type.invalid",
			Severity: SeverityError,
			Message:  fmt.Sprintf("execution_type %q is not supported (want %q or %q)", req.ExecutionType, ExecutionSimple, ExecutionOrchestrator),
			Field:    "execution_type",
		})
	}

	if req.Model == "" {
		r.Add(ValidationFinding{
			Check:    "model.required",
			Severity: SeverityError,
			Message:  "model must not be empty",
			Field:    "model",
		})
	} else if catalog != nil && !catalog.Has(req.Model) {
		r.Add(ValidationFinding{
			Check:    "model.unknown",
			Severity: SeverityError,
			Message:  fmt.Sprintf("model %q is not in the allowed model list", req.Model),
			Field:    "model",
		})
	}

	if req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > 1) {
		r.Add(ValidationFinding{
			Check:    "temperature.range",
			Severity: SeverityError,
			Message:  "temperature must be between 0 and 1",
			Field:    "temperature",
		})
	}

	if req.MaxTokens < 0 {
		r.Add(ValidationFinding{
			Check:    "max_tokens.range",
			Severity: SeverityError,
			Message:  "max_tokens must not be negative",
			Field:    "max_tokens",
		})
	}

	if req.ExecutionType == ExecutionSimple && (len(req.Agents) > 0 || len(req.Tools) > 0) {
		r.Add(ValidationFinding{
			Check:    "agents.ignored",
			Severity: SeverityWarning,
			Message:  "agents and tools are only used by orchestrator executions",
		})
	}

	return r
}
