package model

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

// CREATE TYPE archive_status AS ENUM ('NEW', 'WAITING', 'PROCESSING_TRANSFER', 'FAILED_TRANSFER', 'PROCESSING_AIP', 'REGISTERED', 'FAILED', 'IGNORED', 'DELETED');
type ArchiveStatus string

const (
	// The SIP has been created, but not yet sent for archiving
	StatusNew ArchiveStatus = "NEW"

	// The transfer has been started, Archivematica didn't acknowledge it yet
	StatusWaiting ArchiveStatus = "WAITING"

	// Archivematica is processing the transfer
	StatusProcessingTransfer ArchiveStatus = "PROCESSING_TRANSFER"

	// The transfer phase failed. A fresh start may still be attempted.
	StatusFailedTransfer ArchiveStatus = "FAILED_TRANSFER"

	// Archivematica is building the AIP
	StatusProcessingAip ArchiveStatus = "PROCESSING_AIP"

	// The AIP has been stored, the SIP is archived
	StatusRegistered ArchiveStatus = "REGISTERED"

	// Archiving failed
	StatusFailed ArchiveStatus = "FAILED"

	// The SIP won't be archived
	StatusIgnored ArchiveStatus = "IGNORED"

	// The archive has been deleted upstream. Advisory only, the row stays.
	StatusDeleted ArchiveStatus = "DELETED"
)

func (self *ArchiveStatus) Scan(value interface{}) error {
	*self = ArchiveStatus(value.(string))
	return nil
}

func (self ArchiveStatus) Value() (driver.Value, error) {
	return string(self), nil
}

// Human readable titles, presentation only
var statusTitles = map[ArchiveStatus]string{
	StatusNew:                "New",
	StatusWaiting:            "Waiting",
	StatusProcessingTransfer: "Processing transfer",
	StatusFailedTransfer:     "Failed transfer",
	StatusProcessingAip:      "Processing AIP",
	StatusRegistered:         "Registered",
	StatusFailed:             "Failed",
	StatusIgnored:            "Ignored",
	StatusDeleted:            "Deleted",
}

func (self ArchiveStatus) Title() string {
	return statusTitles[self]
}

func (self ArchiveStatus) IsValid() bool {
	_, ok := statusTitles[self]
	return ok
}

// Archivematica returned a status string that's not in the conversion table.
// Callers must treat this as an inconclusive poll, never as a state change.
var ErrUnknownStatus = errors.New("unknown archivematica status")

// Translates Archivematica's status vocabulary into ArchiveStatus.
// Exact, case-sensitive matches only. The raw value PROCESSING is ambiguous
// and gets disambiguated by the phase the caller polled.
func Convert(externalStatus string, isAipPhase bool) (status ArchiveStatus, err error) {
	switch externalStatus {
	case "COMPLETE":
		return StatusRegistered, nil
	case "REJECTED", "USER_INPUT":
		return StatusFailed, nil
	case "SIP_PROCESSING":
		return StatusProcessingTransfer, nil
	case "AIP_PROCESSING":
		return StatusProcessingAip, nil
	case "PROCESSING":
		if isAipPhase {
			return StatusProcessingAip, nil
		}
		return StatusProcessingTransfer, nil
	}

	// Archivematica may echo our own vocabulary back
	if own := ArchiveStatus(externalStatus); own.IsValid() {
		return own, nil
	}

	err = fmt.Errorf("%w: %s", ErrUnknownStatus, externalStatus)
	return
}
