package model

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Registers the archiving state of a single SIP. A SIP can have only one
// archive row and an archive row applies to only one SIP.
type Archive struct {
	ID int `gorm:"primaryKey; not null; comment:Numerical id of the archive row"`

	SipID uuid.UUID `gorm:"type:uuid; uniqueIndex; not null; comment:SIP this archive tracks"`
	Sip   Sip       // Can be preloaded by gorm, but isn't by default.

	Status ArchiveStatus `gorm:"not null; type:archive_status; index; comment:Position in the archiving state machine"`

	// Externally visible id of the package in the organization's naming
	// scheme. Unique once set, by convention never rewritten to a different value.
	AccessionID sql.NullString `gorm:"type:varchar(255); comment:Accession id of the package in Archivematica"`

	// Id assigned by Archivematica once it acknowledges the package
	ArchivematicaID uuid.NullUUID `gorm:"type:uuid; comment:Id of the transfer or AIP in Archivematica"`

	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"comment:Time of the last update to this row. Comparison key of the sweep."`
}

func (Archive) TableName() string {
	return "archives"
}
