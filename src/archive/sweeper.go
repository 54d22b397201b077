package archive

import (
	"context"
	"time"

	"archiver/src/utils/config"
	"archiver/src/utils/model"
	"archiver/src/utils/monitoring"
	"archiver/src/utils/task"

	"github.com/robfig/cron"
)

// Periodically picks up NEW records that sat untouched for long enough and
// pushes them through the orchestrator. The safety net for creation events
// that never arrived or starts that were interrupted.
type Sweeper struct {
	*task.Task

	store        Store
	orchestrator *Orchestrator
	monitor      monitoring.Monitor

	cron *cron.Cron
}

func NewSweeper(config *config.Config) (self *Sweeper) {
	self = new(Sweeper)

	self.cron = cron.New()

	self.Task = task.NewTask(config, "sweeper").
		WithWorkerPool(config.Archiver.WorkerPoolSize).
		WithOnBeforeStart(self.schedule).
		WithOnStop(func() {
			self.cron.Stop()
		})

	return
}

func (self *Sweeper) WithStore(store Store) *Sweeper {
	self.store = store
	return self
}

func (self *Sweeper) WithOrchestrator(orchestrator *Orchestrator) *Sweeper {
	self.orchestrator = orchestrator
	return self
}

func (self *Sweeper) WithMonitor(monitor monitoring.Monitor) *Sweeper {
	self.monitor = monitor
	return self
}

func (self *Sweeper) schedule() (err error) {
	err = self.cron.AddFunc(self.Config.Archiver.SweepSchedule, func() {
		_, err := self.SweepAndStart(self.Ctx, self.Config.Archiver.SweepOlderThan, self.Config.Archiver.SweepAsync)
		if err != nil {
			self.Log.WithError(err).Error("Scheduled sweep failed")
		}
	})
	if err != nil {
		return
	}

	self.cron.Start()
	self.Log.WithField("schedule", self.Config.Archiver.SweepSchedule).Info("Sweep scheduled")
	return
}

// Starts archiving for NEW records whose last change is older than olderThan.
// Synchronous sweeps drain everything due, batch by batch, since started
// records leave NEW and drop out of the selection. Asynchronous sweeps hand
// one batch to the worker pool and return, the rest waits for the next run.
// Failing records are logged and skipped, one bad SIP never stalls the sweep.
// Failed records stay NEW and get re-selected, so the drain also stops as
// soon as a pass starts nothing, they are retried on the next sweep instead
// of in a tight loop.
func (self *Sweeper) SweepAndStart(ctx context.Context, olderThan time.Duration, async bool) (count int, err error) {
	cutoff := time.Now().Add(-olderThan)
	batchSize := self.Config.Archiver.SweepBatchSize

	self.monitor.GetReport().Archiver.State.SweepsRun.Inc()

	for {
		var batch []*model.Archive
		batch, err = self.store.SelectDue(ctx, cutoff, batchSize)
		if err != nil {
			self.monitor.GetReport().Archiver.Errors.DbError.Inc()
			return
		}

		started := 0
		for _, ark := range batch {
			if async {
				ark := ark
				self.SubmitToWorker(func() {
					self.startOne(self.Ctx, ark)
				})
			} else if self.startOne(ctx, ark) {
				started++
			}
		}
		count += len(batch)

		if async || len(batch) < batchSize || started == 0 {
			return
		}
	}
}

func (self *Sweeper) startOne(ctx context.Context, ark *model.Archive) (started bool) {
	accessionID := ""
	if ark.AccessionID.Valid {
		accessionID = ark.AccessionID.String
	}

	err := self.orchestrator.Start(ctx, ark.SipID, accessionID)
	if err != nil {
		self.monitor.GetReport().Archiver.Errors.SweepError.Inc()
		self.Log.WithError(err).WithField("sip_id", ark.SipID).Error("Sweep failed to start record")
		return false
	}

	self.monitor.GetReport().Archiver.State.RecordsSwept.Inc()
	return true
}
