package archive

import (
	"github.com/google/uuid"
)

// Event fired by the repository system when a new SIP exists.
// Delivered at least once, the listener is idempotent.
type SipCreated struct {
	SipID uuid.UUID `json:"sip_id"`
}
