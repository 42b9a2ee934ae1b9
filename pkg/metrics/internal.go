package metrics

import (
	"sync"
	"time"
)

// InternalRecorder implements the Recorder interface using in-memory
// aggregation. It backs the end-of-run summaries and does not require a
// Prometheus server.
type InternalRecorder struct {
	batches map[string]*BatchMetrics // batchID -> aggregated metrics
	mu      sync.RWMutex
}

// BatchMetrics represents aggregated metrics for one generation or
// verification batch.
type BatchMetrics struct {
	PromptTokens     int64     `json:"prompt_tokens"`
	CompletionTokens int64     `json:"completion_tokens"`
	TotalTokens      int64     `json:"total_tokens"`
	RequestCount     int64     `json:"request_count"`
	ErrorCount       int64     `json:"error_count"`
	TotalCost        float64   `json:"total_cost_usd"`
	BatchID          string    `json:"batch_id"`
	LastUpdated      time.Time `json:"last_updated"`
}

//nolint:gochecknoglobals // Singleton instance and initialization synchronization
var (
	internalInstance *InternalRecorder
	internalOnce     sync.Once
)

// NewInternalRecorder returns a singleton internal metrics recorder.
func NewInternalRecorder() *InternalRecorder {
	internalOnce.Do(func() {
		internalInstance = &InternalRecorder{
			batches: make(map[string]*BatchMetrics),
		}
	})
	return internalInstance
}

// ObserveRequest records metrics for a completed LLM request.
func (r *InternalRecorder) ObserveRequest(
	_, batchID string,
	_ int,
	promptTokens, completionTokens int,
	cost float64,
	success bool,
	_ string,
	_ time.Duration,
) {
	if batchID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	batch, exists := r.batches[batchID]
	if !exists {
		batch = &BatchMetrics{BatchID: batchID}
		r.batches[batchID] = batch
	}

	batch.RequestCount++
	batch.LastUpdated = time.Now()
	if !success {
		batch.ErrorCount++
		return
	}

	batch.PromptTokens += int64(promptTokens)
	batch.CompletionTokens += int64(completionTokens)
	batch.TotalTokens = batch.PromptTokens + batch.CompletionTokens
	batch.TotalCost += cost
}

// GetBatchMetrics returns a copy of the aggregated metrics for a batch, or
// nil when the batch is unknown.
func (r *InternalRecorder) GetBatchMetrics(batchID string) *BatchMetrics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if batch, exists := r.batches[batchID]; exists {
		clone := *batch
		return &clone
	}
	return nil
}

// ClearBatchMetrics removes metrics for a batch (useful for testing).
func (r *InternalRecorder) ClearBatchMetrics(batchID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.batches, batchID)
}
