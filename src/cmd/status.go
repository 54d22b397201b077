package cmd

import (
	"encoding/json"
	"fmt"

	"archiver/src/archive"
	"archiver/src/utils/archivematica"
	"archiver/src/utils/events"
	"archiver/src/utils/model"
	monitor_archiver "archiver/src/utils/monitoring/archiver"
	"archiver/src/utils/transfer"

	"github.com/spf13/cobra"
)

var statusReal bool

func init() {
	statusCmd.Flags().BoolVar(&statusReal, "real", false, "reconcile against Archivematica before answering")
	RootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status <accession-id>",
	Short: "Print the status of an archive record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		db, err := model.NewConnection(applicationCtx, conf, "archiver-status")
		if err != nil {
			return
		}

		backend, err := transfer.Get(conf.Archiver.TransferBackend, &conf.Archiver)
		if err != nil {
			return
		}

		monitor := monitor_archiver.NewMonitor()
		store := archive.NewDbStore(db)
		client := archivematica.NewClient(&conf.Archivematica)

		orchestrator := archive.NewOrchestrator(conf).
			WithStore(store).
			WithBackend(backend).
			WithBus(events.NewBus()).
			WithMonitor(monitor)

		poller := archive.NewPoller(conf).
			WithAuthority(client).
			WithOrchestrator(orchestrator).
			WithMonitor(monitor)

		ark, err := store.GetArchiveByAccession(applicationCtx, args[0])
		if err != nil {
			return
		}

		status, err := poller.PollAndReconcile(applicationCtx, ark, statusReal)
		if err != nil {
			return
		}

		out, err := json.Marshal(map[string]any{
			"sip_id":       ark.SipID,
			"accession_id": args[0],
			"status":       status,
		})
		if err != nil {
			return
		}

		fmt.Println(string(out))
		cancel()
		return
	},
}
