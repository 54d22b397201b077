package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
)

// Local mirror of a Submission Information Package. The SIP itself is created
// and owned by the repository system, this row carries the flags the archiver
// reads and writes.
type Sip struct {
	ID uuid.UUID `gorm:"type:uuid; primaryKey; comment:Id of the SIP, assigned by the owning repository"`

	Name string `gorm:"type:varchar(255); not null; comment:Display name of the package"`

	// Set by the SIP's owner at creation time, read by the eligibility policy
	Archivable bool `gorm:"not null; default:false"`

	// Maintained by the orchestrator, true once the package is registered
	Archived bool `gorm:"not null; default:false"`

	// Raw package metadata as delivered by the repository
	Metadata pgtype.JSONB `gorm:"type:jsonb"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Sip) TableName() string {
	return "sips"
}
