package worker

import (
	"fmt"
	"strings"
)

// RowError error of processing one transaction.
// Critical errors need operator review.
type RowError struct {
	TxID     string
	Err      error
	Critical bool
}

func (e *RowError) Error() string {
	return fmt.Sprintf("tx %v: %v", e.TxID, e.Err)
}

// Unwrap returns the cause
func (e *RowError) Unwrap() error {
	return e.Err
}

// RowErrors per transaction errors of a batch
type RowErrors []*RowError

func (errs *RowErrors) add(txid string, err error) {
	*errs = append(*errs, &RowError{TxID: txid, Err: err})
}

func (errs *RowErrors) addCritical(txid string, err error) {
	*errs = append(*errs, &RowError{TxID: txid, Err: err, Critical: true})
}

func (errs RowErrors) hasCritical() bool {
	for _, err := range errs {
		if err.Critical {
			return true
		}
	}
	return false
}

func (errs RowErrors) String() string {
	lines := make([]string, 0, len(errs))
	for _, err := range errs {
		lines = append(lines, err.Error())
	}
	return strings.Join(lines, "\n")
}

// VerifySummary summary of a verify batch
type VerifySummary struct {
	Processed int
	Verified  int
	Failed    int
	Retried   int
	Skipped   int // claimed by another run
	Errors    RowErrors
}

// TransferSummary summary of a transfer batch
type TransferSummary struct {
	Processed int
	Completed int
	Failed    int
	Retried   int
	Skipped   int
	Errors    RowErrors
}

// StuckSummary summary of a stuck transfer sweep
type StuckSummary struct {
	Scanned  int
	Reverted int
	Failed   int
	Skipped  int
	Errors   RowErrors
}

// RecoverySummary summary of a recovery sweep
type RecoverySummary struct {
	Scanned           int
	Recovered         int
	PermanentlyFailed int
	StillFailed       int
	Skipped           int
	Errors            RowErrors
}

type batchSummary interface {
	fields() []interface{}
	rowErrors() RowErrors
	isEmpty() bool
	needAlert() bool
}

func (s *VerifySummary) fields() []interface{} {
	return []interface{}{"processed", s.Processed, "verified", s.Verified, "failed", s.Failed, "retried", s.Retried, "skipped", s.Skipped, "errors", len(s.Errors)}
}

func (s *VerifySummary) rowErrors() RowErrors { return s.Errors }
func (s *VerifySummary) isEmpty() bool        { return s.Processed == 0 && s.Skipped == 0 && len(s.Errors) == 0 }
func (s *VerifySummary) needAlert() bool      { return s.Failed > 0 }

func (s *TransferSummary) fields() []interface{} {
	return []interface{}{"processed", s.Processed, "completed", s.Completed, "failed", s.Failed, "retried", s.Retried, "skipped", s.Skipped, "errors", len(s.Errors)}
}

func (s *TransferSummary) rowErrors() RowErrors { return s.Errors }
func (s *TransferSummary) isEmpty() bool        { return s.Processed == 0 && s.Skipped == 0 && len(s.Errors) == 0 }
func (s *TransferSummary) needAlert() bool      { return s.Failed > 0 || s.Errors.hasCritical() }

func (s *StuckSummary) fields() []interface{} {
	return []interface{}{"scanned", s.Scanned, "reverted", s.Reverted, "failed", s.Failed, "skipped", s.Skipped, "errors", len(s.Errors)}
}

func (s *StuckSummary) rowErrors() RowErrors { return s.Errors }
func (s *StuckSummary) isEmpty() bool        { return s.Scanned == 0 }
func (s *StuckSummary) needAlert() bool      { return s.Scanned > 0 }

func (s *RecoverySummary) fields() []interface{} {
	return []interface{}{"scanned", s.Scanned, "recovered", s.Recovered, "permanentlyFailed", s.PermanentlyFailed, "stillFailed", s.StillFailed, "skipped", s.Skipped, "errors", len(s.Errors)}
}

func (s *RecoverySummary) rowErrors() RowErrors { return s.Errors }
func (s *RecoverySummary) isEmpty() bool        { return s.Scanned == 0 }
func (s *RecoverySummary) needAlert() bool      { return s.PermanentlyFailed > 0 }
