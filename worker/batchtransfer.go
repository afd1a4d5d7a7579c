package worker

import (
	"context"

	mapset "github.com/deckarep/golang-set"

	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/anyswap/CrossChain-Settlement/types"
)

const bulkTransferJob = "bulktransfer"

// ProcessBatchTransfer transfer several untouched confirmed transactions in one call.
// Per transaction results go through the same success and failure handling as ProcessBatch.
func (w *TransferWorker) ProcessBatchTransfer(ctx context.Context) (*TransferSummary, error) {
	if w.batcher == nil {
		return nil, tokens.ErrNoCollaborator
	}
	txs, err := w.store.FindTransactions(ctx, &types.TxFilter{
		Status:    types.PaymentConfirmed,
		OnlyFresh: true,
		Limit:     w.opts.BulkSize,
	})
	if err != nil {
		return nil, err
	}

	summary := &TransferSummary{}
	claimed := make(map[string]*types.Transaction, len(txs))
	items := make([]*tokens.BatchTransferItem, 0, len(txs))
	unanswered := mapset.NewSet()
	for _, tx := range txs {
		if !w.claim(ctx, bulkTransferJob, tx, summary) {
			continue
		}
		claimed[tx.ID] = tx
		unanswered.Add(tx.ID)
		items = append(items, &tokens.BatchTransferItem{
			Recipient: tx.Recipient,
			Amount:    tx.AmountPaid,
			Context:   transferContext(tx),
		})
	}
	if len(claimed) == 0 {
		return summary, nil
	}
	logWorker(bulkTransferJob, "submit batch transfer", "count", len(claimed))

	results, err := w.batcher.BatchTransferFunds(ctx, items)
	if err != nil {
		for _, tx := range claimed {
			w.onFailure(ctx, bulkTransferJob, tx, err, summary)
		}
		return summary, nil
	}

	for txid, res := range results {
		tx, exist := claimed[txid]
		switch {
		case !exist:
			logWorkerWarn(bulkTransferJob, "ignore unknown batch transfer result", "id", txid)
		case res != nil:
			unanswered.Remove(txid)
			w.onResult(ctx, bulkTransferJob, tx, res.TransferRef, res.Err, summary)
		}
	}
	for _, txid := range unanswered.ToSlice() {
		w.onFailure(ctx, bulkTransferJob, claimed[txid.(string)], &tokens.Failure{Kind: tokens.KindBusiness, Cause: tokens.ErrMissingBatchResult}, summary)
	}
	return summary, nil
}
