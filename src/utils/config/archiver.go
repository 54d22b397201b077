package config

import (
	"time"

	"github.com/spf13/viper"
)

type Archiver struct {
	// Organization name used as the prefix of generated accession ids
	OrganizationName string

	// Name of the eligibility policy deciding which SIPs get archived: all, none or default
	EligibilityPolicy string

	// Name of the backend that physically moves packages: copy, rsync or push
	TransferBackend string

	// Folder the packages are staged in before the transfer
	TransferSourceFolder string

	// Transfer destination. A folder for copy, [user@]host:path for rsync, an URL for push
	TransferDestination string

	// Max duration of a single backend transfer
	TransferTimeout time.Duration

	// Cron spec of the recurring sweep
	SweepSchedule string

	// Only records that didn't change for at least this long are swept
	SweepOlderThan time.Duration

	// Number of records fetched in one sweep query
	SweepBatchSize int

	// Should sweep dispatch transfers through the worker pool
	SweepAsync bool

	// Num of workers that run transfers
	WorkerPoolSize int

	// Buffer size of the SIP created event channel
	ListenerQueueSize int

	// How long a reconciled status is served from cache on the forced read path
	StatusCacheTtl time.Duration
}

func setArchiverDefaults() {
	viper.SetDefault("Archiver.OrganizationName", "CERN")
	viper.SetDefault("Archiver.EligibilityPolicy", "default")
	viper.SetDefault("Archiver.TransferBackend", "copy")
	viper.SetDefault("Archiver.TransferSourceFolder", "/var/lib/archiver/staging")
	viper.SetDefault("Archiver.TransferDestination", "/var/lib/archiver/transfer")
	viper.SetDefault("Archiver.TransferTimeout", "15m")
	viper.SetDefault("Archiver.SweepSchedule", "@every 1h")
	viper.SetDefault("Archiver.SweepOlderThan", "360h")
	viper.SetDefault("Archiver.SweepBatchSize", "50")
	viper.SetDefault("Archiver.SweepAsync", "true")
	viper.SetDefault("Archiver.WorkerPoolSize", "5")
	viper.SetDefault("Archiver.ListenerQueueSize", "10")
	viper.SetDefault("Archiver.StatusCacheTtl", "30s")
}
