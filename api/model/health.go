package model

import "time"

type HealthStatus string

const (
	HealthOK          HealthStatus = "ok"
	HealthDegraded    HealthStatus = "degraded"
	HealthUnavailable HealthStatus = "unavailable"
)

type ComponentHealth struct {
	Status    HealthStatus `json:"status"`
	Details   string       `json:"details,omitempty"`
	LatencyMS int64        `json:"latency_ms,omitempty"`
}

// HealthReport is built fresh on every detailed health query; nothing is
// cached across requests.
type HealthReport struct {
	Status     HealthStatus               `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Timestamp  time.Time                  `json:"timestamp"`
}
