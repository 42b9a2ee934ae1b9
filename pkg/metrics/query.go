package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// QueryService provides methods to query aggregated batch metrics from a
// Prometheus server that scrapes the Pushgateway the generator and verifier
// push to on exit.
type QueryService struct {
	client   api.Client
	queryAPI v1.API
}

// NewQueryService creates a new metrics query service.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &QueryService{
		client:   client,
		queryAPI: v1.NewAPI(client),
	}, nil
}

// GetBatchMetrics retrieves aggregated token and cost metrics for a batch.
// The results cover every LLM request tagged with the batch ID, across all
// models involved.
func (q *QueryService) GetBatchMetrics(ctx context.Context, batchID string) (*BatchMetrics, error) {
	metrics := &BatchMetrics{
		BatchID: batchID,
	}

	promptTokensQuery := fmt.Sprintf(`sum(llm_tokens_total{batch_id=%q, type="prompt"})`, batchID)
	promptResult, _, err := q.queryAPI.Query(ctx, promptTokensQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query prompt tokens: %w", err)
	}

	if vector, ok := promptResult.(model.Vector); ok && len(vector) > 0 {
		metrics.PromptTokens = int64(vector[0].Value)
	}

	completionTokensQuery := fmt.Sprintf(`sum(llm_tokens_total{batch_id=%q, type="completion"})`, batchID)
	completionResult, _, err := q.queryAPI.Query(ctx, completionTokensQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query completion tokens: %w", err)
	}

	if vector, ok := completionResult.(model.Vector); ok && len(vector) > 0 {
		metrics.CompletionTokens = int64(vector[0].Value)
	}

	metrics.TotalTokens = metrics.PromptTokens + metrics.CompletionTokens

	requestsQuery := fmt.Sprintf(`sum(llm_requests_total{batch_id=%q})`, batchID)
	requestsResult, _, err := q.queryAPI.Query(ctx, requestsQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query request count: %w", err)
	}

	if vector, ok := requestsResult.(model.Vector); ok && len(vector) > 0 {
		metrics.RequestCount = int64(vector[0].Value)
	}

	costQuery := fmt.Sprintf(`sum(llm_costs_total{batch_id=%q})`, batchID)
	costResult, _, err := q.queryAPI.Query(ctx, costQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query total cost: %w", err)
	}

	if vector, ok := costResult.(model.Vector); ok && len(vector) > 0 {
		metrics.TotalCost = float64(vector[0].Value)
	}

	return metrics, nil
}

// GetBatchMetricsByModel retrieves metrics broken down by model for a batch,
// showing which models were used and their individual token and cost totals.
func (q *QueryService) GetBatchMetricsByModel(ctx context.Context, batchID string) (map[string]*BatchMetrics, error) {
	result := make(map[string]*BatchMetrics)

	modelsQuery := fmt.Sprintf(`group by (model) (llm_tokens_total{batch_id=%q})`, batchID)
	modelsResult, _, err := q.queryAPI.Query(ctx, modelsQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query models: %w", err)
	}

	var models []string
	if vector, ok := modelsResult.(model.Vector); ok {
		for _, sample := range vector {
			if modelName, ok := sample.Metric["model"]; ok {
				models = append(models, string(modelName))
			}
		}
	}

	for _, modelName := range models {
		metrics := &BatchMetrics{
			BatchID: batchID,
		}

		promptQuery := fmt.Sprintf(`sum(llm_tokens_total{batch_id=%q, model=%q, type="prompt"})`, batchID, modelName)
		promptResult, _, err := q.queryAPI.Query(ctx, promptQuery, time.Now())
		if err != nil {
			return nil, fmt.Errorf("failed to query prompt tokens for model %s: %w", modelName, err)
		}

		if vector, ok := promptResult.(model.Vector); ok && len(vector) > 0 {
			metrics.PromptTokens = int64(vector[0].Value)
		}

		completionQuery := fmt.Sprintf(`sum(llm_tokens_total{batch_id=%q, model=%q, type="completion"})`, batchID, modelName)
		completionResult, _, err := q.queryAPI.Query(ctx, completionQuery, time.Now())
		if err != nil {
			return nil, fmt.Errorf("failed to query completion tokens for model %s: %w", modelName, err)
		}

		if vector, ok := completionResult.(model.Vector); ok && len(vector) > 0 {
			metrics.CompletionTokens = int64(vector[0].Value)
		}

		metrics.TotalTokens = metrics.PromptTokens + metrics.CompletionTokens

		costQuery := fmt.Sprintf(`sum(llm_costs_total{batch_id=%q, model=%q})`, batchID, modelName)
		costResult, _, err := q.queryAPI.Query(ctx, costQuery, time.Now())
		if err != nil {
			return nil, fmt.Errorf("failed to query cost for model %s: %w", modelName, err)
		}

		if vector, ok := costResult.(model.Vector); ok && len(vector) > 0 {
			metrics.TotalCost = float64(vector[0].Value)
		}

		result[modelName] = metrics
	}

	return result, nil
}
