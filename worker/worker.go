package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/anyswap/CrossChain-Settlement/log"
	"github.com/anyswap/CrossChain-Settlement/params"
)

type scheduledJob struct {
	name string
	spec string
	run  func(context.Context) (batchSummary, error)
}

// StartWork schedule all the jobs, stop the returned cron to end them.
// A job run is skipped while its previous run is still in progress.
func StartWork(ctx context.Context, cfg *params.SettleConfig, ws *Workers) (*cron.Cron, error) {
	logWorker("worker", "start settle server worker")

	logger := cronLogger{}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	jobs := []scheduledJob{
		{verifyJob, cfg.Verify.Schedule, func(ctx context.Context) (batchSummary, error) { return ws.Verify.ProcessBatch(ctx) }},
		{verifyRetryJob, cfg.Verify.RetrySchedule, func(ctx context.Context) (batchSummary, error) { return ws.Verify.ProcessRetries(ctx) }},
		{transferJob, cfg.Transfer.Schedule, func(ctx context.Context) (batchSummary, error) { return ws.Transfer.ProcessBatch(ctx) }},
		{transferRetryJob, cfg.Transfer.RetrySchedule, func(ctx context.Context) (batchSummary, error) { return ws.Transfer.ProcessRetries(ctx) }},
		{stuckJob, cfg.Transfer.StuckSchedule, func(ctx context.Context) (batchSummary, error) { return ws.Transfer.ProcessStuck(ctx) }},
		{recoveryJob, cfg.Recovery.Schedule, func(ctx context.Context) (batchSummary, error) { return ws.Recovery.ProcessStuckTransactions(ctx) }},
	}
	if ws.EnableBulk {
		jobs = append(jobs, scheduledJob{bulkTransferJob, cfg.Transfer.BulkSchedule, func(ctx context.Context) (batchSummary, error) { return ws.Transfer.ProcessBatchTransfer(ctx) }})
	}

	for _, job := range jobs {
		if _, err := c.AddFunc(job.spec, ws.jobFunc(ctx, job.name, job.run)); err != nil {
			return nil, fmt.Errorf("schedule %v job with '%v' failed: %w", job.name, job.spec, err)
		}
		logWorker("worker", "schedule job", "job", job.name, "spec", job.spec)
	}
	if _, err := c.AddFunc(cfg.Server.StatsSchedule, func() {
		if _, err := RefreshStatusGauge(ctx, ws.Store); err != nil {
			logWorkerError(statsJob, "count transactions failed", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule stats job failed: %w", err)
	}

	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		logWorker("worker", "all jobs stopped")
	}()
	return c, nil
}

func (ws *Workers) jobFunc(ctx context.Context, job string, run func(context.Context) (batchSummary, error)) func() {
	return func() {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		summary, err := run(ctx)
		batchDuration.WithLabelValues(job).Observe(time.Since(start).Seconds())
		if err != nil {
			logWorkerError(job, "process batch failed", err)
			return
		}
		ws.report(job, summary)
	}
}

func (ws *Workers) report(job string, summary batchSummary) {
	if errs := summary.rowErrors(); len(errs) > 0 {
		batchErrorsCounter.WithLabelValues(job).Add(float64(len(errs)))
	}
	if summary.isEmpty() {
		logWorkerTrace(job, "nothing to process")
		return
	}
	logWorker(job, "batch finished", summary.fields()...)
	if ws.Alerter != nil && summary.needAlert() {
		_ = ws.Alerter.Alert(alertSubject(ws.Identifier, job), alertContent(summary))
	}
}

// cronLogger logs cron events through the log package
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug("[cron] "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := []interface{}{"err", err}
	fields = append(fields, keysAndValues...)
	log.Error("[cron] "+msg, fields...)
}
