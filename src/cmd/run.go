package cmd

import (
	"archiver/src/archive"
	"archiver/src/utils/logger"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Listen for SIP creation events, sweep due records and serve the REST API",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		controller, err := archive.NewController(conf)
		if err != nil {
			return
		}

		err = controller.Start()
		if err != nil {
			return
		}

		<-applicationCtx.Done()

		controller.StopWait()

		return
	},
	PostRunE: func(cmd *cobra.Command, args []string) (err error) {
		log := logger.NewSublogger("root-cmd")
		log.Debug("Finished run command")
		return
	},
}
