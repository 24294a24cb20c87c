package executor

import (
	"agentlab/api/lab"
	"agentlab/api/model"
)

// normalizeInference maps the lab's flat inference shape into the unified
// result. Simple executions have no flow and no partial state.
func normalizeInference(resp *lab.InferenceResponse) model.ExecutionResult {
	res := model.ExecutionResult{
		Status: model.StatusSuccess,
		Output: resp.Text,
		Metrics: model.ExecutionMetrics{
			LatencyMS: resp.Metrics.LatencyMS,
			Tokens:    resp.Metrics.Tokens,
		},
	}
	if resp.Error != "" {
		res.Status = model.StatusFailure
		res.Output = resp.Error
	}
	return res
}

// normalizeOrchestration maps the lab's node list into an ordered flow,
// preserving the reported order. Overall status is tri-state: success only
// when every node is done; partial when the run broke down but at least
// one node produced usable output; failure when none did.
func normalizeOrchestration(resp *lab.OrchestrationResponse) model.ExecutionResult {
	flow := make([]model.NodeState, len(resp.Nodes))
	allDone := len(resp.Nodes) > 0
	usable := false
	for i, n := range resp.Nodes {
		status := model.NodeStatus(n.Status)
		flow[i] = model.NodeState{
			Name:     n.Name,
			Status:   status,
			Output:   n.Output,
			Position: i,
		}
		if status == model.NodeDone {
			if n.Output != "" {
				usable = true
			}
		} else {
			allDone = false
		}
	}

	steps := resp.Metrics.Steps
	if steps == 0 {
		steps = len(resp.Nodes)
	}

	res := model.ExecutionResult{
		Output: resp.Output,
		Flow:   flow,
		Metrics: model.ExecutionMetrics{
			LatencyMS: resp.Metrics.LatencyMS,
			Tokens:    resp.Metrics.Tokens,
			Steps:     steps,
		},
	}

	switch {
	case resp.Error != "":
		res.Status = model.StatusFailure
		if res.Output == "" {
			res.Output = resp.Error
		}
	case allDone:
		res.Status = model.StatusSuccess
	case usable:
		res.Status = model.StatusPartial
	default:
		res.Status = model.StatusFailure
	}
	return res
}
