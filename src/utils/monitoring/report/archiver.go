package report

import (
	"go.uber.org/atomic"
)

type ArchiverErrors struct {
	DbError               atomic.Uint64 `json:"db_error"`
	TransferError         atomic.Uint64 `json:"transfer_error"`
	PollTransferError     atomic.Uint64 `json:"poll_transfer_error"`
	PollIngestError       atomic.Uint64 `json:"poll_ingest_error"`
	UnknownStatusError    atomic.Uint64 `json:"unknown_status_error"`
	AccessionConflict     atomic.Uint64 `json:"accession_conflict"`
	SweepError            atomic.Uint64 `json:"sweep_error"`
	ReconciliationInvalid atomic.Uint64 `json:"reconciliation_invalid"`
}

type ArchiverState struct {
	RecordsCreated         atomic.Uint64  `json:"records_created"`
	RecordsIgnored         atomic.Uint64  `json:"records_ignored"`
	TransfersStarted       atomic.Uint64  `json:"transfers_started"`
	TransfersFinished      atomic.Uint64  `json:"transfers_finished"`
	TransfersFailed        atomic.Uint64  `json:"transfers_failed"`
	SweepsRun              atomic.Uint64  `json:"sweeps_run"`
	RecordsSwept           atomic.Uint64  `json:"records_swept"`
	Reconciliations        atomic.Uint64  `json:"reconciliations"`
	ReconciliationsNoop    atomic.Uint64  `json:"reconciliations_noop"`
	ReconciliationsMoved   atomic.Uint64  `json:"reconciliations_moved"`
	NotificationsEmitted   atomic.Uint64  `json:"notifications_emitted"`
	AverageStartsPerMinute atomic.Float64 `json:"average_starts_per_minute"`
}

type ArchiverReport struct {
	State  ArchiverState  `json:"state"`
	Errors ArchiverErrors `json:"errors"`
}
