// Package worker includes all the jobs driving settlement transactions to a terminal status.
//
// It contains the following jobs (concurrently, each on its own schedule):
//	verify
//		confirm the deposit of fresh transactions on the source chain.
//	verifyretry
//		re-verify transactions whose retry backoff window elapsed.
//	transfer
//		transfer destination chain tokens to the recipient of confirmed transactions.
//	transferretry
//		re-transfer confirmed transactions whose retry backoff window elapsed.
//	bulktransfer
//		transfer several untouched confirmed transactions in one collaborator call.
//	stuck
//		revert or fail transfers left pending past the staleness threshold.
//	recovery
//		slowly re-verify failed payment confirmations, bounded by a recovery attempt ceiling.
//	stats
//		refresh the per status transaction gauges.
// Every write is conditional on the record version, so concurrent runs never both move one transaction.
package worker
