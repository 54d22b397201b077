package events

import (
	"encoding/json"
	"time"

	"archiver/src/utils/model"

	"github.com/google/uuid"
)

type Signal string

const (
	// The package was handed to the transfer backend
	SignalTransferStarted Signal = "transfer-started"

	// Archivematica acknowledged the package and is processing it
	SignalTransferProcessing Signal = "transfer-processing"

	// The AIP is stored, the SIP is archived
	SignalTransferFinished Signal = "transfer-finished"

	// The transfer or the ingest failed
	SignalTransferFailed Signal = "transfer-failed"
)

// Announcement of a state transition. Emitted by the orchestrator only after
// the transition has been persisted.
type Notification struct {
	Signal      Signal              `json:"signal"`
	SipID       uuid.UUID           `json:"sip_id"`
	AccessionID string              `json:"accession_id,omitempty"`
	Status      model.ArchiveStatus `json:"status"`
	OccurredAt  time.Time           `json:"occurred_at"`
}

func (self *Notification) MarshalBinary() ([]byte, error) {
	return json.Marshal(self)
}
