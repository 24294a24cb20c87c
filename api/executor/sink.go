package executor

// Event is a fan-out notification about one execution's lifecycle.
type Event struct {
	Type        string      `json:"type"` // execution.start, execution.finish
	ExecutionID string      `json:"executionId"`
	Payload     interface{} `json:"payload,omitempty"`
}

// EventSink receives execution lifecycle events. The executor works the
// same whether a real sink (websocket hub) or the no-op sink is wired in;
// implementations must not block.
type EventSink interface {
	Publish(evt Event)
}

type NopSink struct{}

func (NopSink) Publish(Event) {}
