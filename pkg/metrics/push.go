package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// PushBatch pushes all registered metrics to a Pushgateway, grouped by batch
// so concurrent or successive runs do not overwrite each other. Generation
// and verification runs are short-lived processes, so a push on exit is how
// their counters reach the Prometheus server that the stats command queries.
func PushBatch(gatewayURL, job, batchID string) error {
	if err := push.New(gatewayURL, job).
		Grouping("batch", batchID).
		Gatherer(prometheus.DefaultGatherer).
		Push(); err != nil {
		return fmt.Errorf("failed to push metrics for batch %s: %w", batchID, err)
	}
	return nil
}
