package cmd

import (
	"fmt"
	"time"

	"archiver/src/archive"
	"archiver/src/utils/events"
	"archiver/src/utils/model"
	monitor_archiver "archiver/src/utils/monitoring/archiver"
	"archiver/src/utils/transfer"

	"github.com/spf13/cobra"
)

var (
	sweepDays    int
	sweepHours   int
	sweepMinutes int
	sweepSeconds int
	sweepAsync   bool
)

func init() {
	sweepCmd.Flags().IntVar(&sweepDays, "days", 0, "minimum age of records, days part")
	sweepCmd.Flags().IntVar(&sweepHours, "hours", 0, "minimum age of records, hours part")
	sweepCmd.Flags().IntVar(&sweepMinutes, "minutes", 0, "minimum age of records, minutes part")
	sweepCmd.Flags().IntVar(&sweepSeconds, "seconds", 0, "minimum age of records, seconds part")
	sweepCmd.Flags().BoolVar(&sweepAsync, "async", false, "start records through the worker pool")
	RootCmd.AddCommand(sweepCmd)
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Start archiving for NEW records older than the given age, once",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		olderThan := time.Duration(sweepDays)*24*time.Hour +
			time.Duration(sweepHours)*time.Hour +
			time.Duration(sweepMinutes)*time.Minute +
			time.Duration(sweepSeconds)*time.Second
		if olderThan == 0 {
			olderThan = conf.Archiver.SweepOlderThan
		}

		db, err := model.NewConnection(applicationCtx, conf, "archiver-sweep")
		if err != nil {
			return
		}

		backend, err := transfer.Get(conf.Archiver.TransferBackend, &conf.Archiver)
		if err != nil {
			return
		}

		monitor := monitor_archiver.NewMonitor()
		store := archive.NewDbStore(db)

		orchestrator := archive.NewOrchestrator(conf).
			WithStore(store).
			WithBackend(backend).
			WithBus(events.NewBus()).
			WithMonitor(monitor)

		sweeper := archive.NewSweeper(conf).
			WithStore(store).
			WithOrchestrator(orchestrator).
			WithMonitor(monitor)

		count, err := sweeper.SweepAndStart(applicationCtx, olderThan, sweepAsync)
		if err != nil {
			return
		}

		if sweepAsync {
			// One-shot process, wait for the queued starts before exiting
			sweeper.Workers.StopWait()
		}

		fmt.Printf("Swept %d records older than %s\n", count, olderThan)
		cancel()
		return
	},
}
