package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternalRecorderAggregation(t *testing.T) {
	rec := NewInternalRecorder()
	batchID := "batch-aggregation-test"
	rec.ClearBatchMetrics(batchID)
	defer rec.ClearBatchMetrics(batchID)

	rec.ObserveRequest("gpt-5-mini-2025-08-07", batchID, 1, 100, 50, 0.002, true, "", 200*time.Millisecond)
	rec.ObserveRequest("gpt-5-mini-2025-08-07", batchID, 1, 80, 40, 0.001, true, "", 150*time.Millisecond)

	batch := rec.GetBatchMetrics(batchID)
	require.NotNil(t, batch)
	assert.Equal(t, int64(180), batch.PromptTokens)
	assert.Equal(t, int64(90), batch.CompletionTokens)
	assert.Equal(t, int64(270), batch.TotalTokens)
	assert.Equal(t, int64(2), batch.RequestCount)
	assert.Equal(t, int64(0), batch.ErrorCount)
	assert.InDelta(t, 0.003, batch.TotalCost, 1e-9)
}

func TestInternalRecorderFailuresDoNotAddTokens(t *testing.T) {
	rec := NewInternalRecorder()
	batchID := "batch-failure-test"
	rec.ClearBatchMetrics(batchID)
	defer rec.ClearBatchMetrics(batchID)

	rec.ObserveRequest("gpt-5-mini-2025-08-07", batchID, 2, 0, 0, 0, false, "rate_limit", time.Second)

	batch := rec.GetBatchMetrics(batchID)
	require.NotNil(t, batch)
	assert.Equal(t, int64(1), batch.RequestCount)
	assert.Equal(t, int64(1), batch.ErrorCount)
	assert.Equal(t, int64(0), batch.TotalTokens)
}

func TestInternalRecorderIgnoresEmptyBatchID(t *testing.T) {
	rec := NewInternalRecorder()
	rec.ObserveRequest("gpt-5-mini-2025-08-07", "", 1, 10, 10, 0.001, true, "", time.Millisecond)
	assert.Nil(t, rec.GetBatchMetrics(""))
}

func TestInternalRecorderUnknownBatch(t *testing.T) {
	rec := NewInternalRecorder()
	assert.Nil(t, rec.GetBatchMetrics("never-observed"))
}
