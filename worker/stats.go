package worker

import (
	"context"

	"github.com/anyswap/CrossChain-Settlement/types"
)

const statsJob = "stats"

// RefreshStatusGauge count transactions per status and export the counts
func RefreshStatusGauge(ctx context.Context, store Store) (map[types.TxStatus]int, error) {
	counts, err := store.CountTransactionsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	for status, count := range counts {
		statusGauge.WithLabelValues(status.String()).Set(float64(count))
	}
	return counts, nil
}
