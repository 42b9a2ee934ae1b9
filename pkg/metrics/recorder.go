// Package metrics provides recording and querying of LLM usage metrics.
package metrics

import "time"

// Recorder observes LLM request outcomes. Implementations must be safe for
// concurrent use.
type Recorder interface {
	// ObserveRequest records a completed LLM request attributed to a batch
	// and TOEIC part.
	ObserveRequest(
		model, batchID string,
		part int,
		promptTokens, completionTokens int,
		cost float64,
		success bool,
		errorType string,
		duration time.Duration,
	)
}

// NoopRecorder discards all observations.
type NoopRecorder struct{}

// ObserveRequest implements Recorder.
func (NoopRecorder) ObserveRequest(string, string, int, int, int, float64, bool, string, time.Duration) {
}

// MultiRecorder fans each observation out to every wrapped recorder.
type MultiRecorder []Recorder

// ObserveRequest implements Recorder.
func (m MultiRecorder) ObserveRequest(
	model, batchID string,
	part int,
	promptTokens, completionTokens int,
	cost float64,
	success bool,
	errorType string,
	duration time.Duration,
) {
	for _, r := range m {
		r.ObserveRequest(model, batchID, part, promptTokens, completionTokens,
			cost, success, errorType, duration)
	}
}
