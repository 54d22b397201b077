package archive

import (
	"context"
	"errors"
	"strings"
	"time"

	"archiver/src/utils/logger"
	"archiver/src/utils/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// Requested archive row does not exist
	ErrRecordNotFound = errors.New("archive record not found")

	// Requested SIP does not exist locally
	ErrSipNotFound = errors.New("sip not found")

	// The accession id is already taken by another archive row. The unique
	// index enforces it, the conflict is surfaced, never silently resolved.
	ErrAccessionConflict = errors.New("accession id already in use")
)

// Access to archive and SIP rows. The interface keeps the get-or-create and
// the locked read-modify-write sequences explicit so both branches can be
// exercised deterministically.
type Store interface {
	GetSip(ctx context.Context, id uuid.UUID) (*model.Sip, error)

	GetArchive(ctx context.Context, sipID uuid.UUID) (*model.Archive, error)
	GetArchiveByAccession(ctx context.Context, accessionID string) (*model.Archive, error)

	// Creates the archive row for the SIP with the given status, or returns
	// the existing row untouched. The bool tells which branch was taken.
	CreateArchive(ctx context.Context, sipID uuid.UUID, status model.ArchiveStatus) (*model.Archive, bool, error)

	// Runs f on the archive row and its SIP inside one transaction, holding
	// a row lock for its duration, and persists whatever f changed. This is
	// the only way status moves, so concurrent operations on the same record
	// serialize on the row lock.
	UpdateArchive(ctx context.Context, sipID uuid.UUID, f func(ark *model.Archive, sip *model.Sip) error) (*model.Archive, error)

	// Records in status NEW whose last change is at or before the cutoff
	SelectDue(ctx context.Context, cutoff time.Time, limit int) ([]*model.Archive, error)
}

// Postgres backed store
type DbStore struct {
	db  *gorm.DB
	log *logrus.Entry
}

func NewDbStore(db *gorm.DB) (self *DbStore) {
	self = new(DbStore)
	self.db = db
	self.log = logger.NewSublogger("store")
	return
}

func (self *DbStore) GetSip(ctx context.Context, id uuid.UUID) (out *model.Sip, err error) {
	var sip model.Sip
	err = self.db.WithContext(ctx).
		First(&sip, "id = ?", id).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = ErrSipNotFound
		}
		return
	}
	out = &sip
	return
}

func (self *DbStore) GetArchive(ctx context.Context, sipID uuid.UUID) (out *model.Archive, err error) {
	var ark model.Archive
	err = self.db.WithContext(ctx).
		First(&ark, "sip_id = ?", sipID).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = ErrRecordNotFound
		}
		return
	}
	out = &ark
	return
}

func (self *DbStore) GetArchiveByAccession(ctx context.Context, accessionID string) (out *model.Archive, err error) {
	var ark model.Archive
	err = self.db.WithContext(ctx).
		First(&ark, "accession_id = ?", accessionID).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = ErrRecordNotFound
		}
		return
	}
	out = &ark
	return
}

func (self *DbStore) CreateArchive(ctx context.Context, sipID uuid.UUID, status model.ArchiveStatus) (out *model.Archive, created bool, err error) {
	ark := model.Archive{SipID: sipID, Status: status}

	result := self.db.WithContext(ctx).
		Where(&model.Archive{SipID: sipID}).
		Attrs(&model.Archive{Status: status}).
		FirstOrCreate(&ark)
	err = result.Error
	if err != nil {
		return
	}

	out = &ark
	created = result.RowsAffected > 0
	return
}

func (self *DbStore) UpdateArchive(ctx context.Context, sipID uuid.UUID, f func(ark *model.Archive, sip *model.Sip) error) (out *model.Archive, err error) {
	var ark model.Archive

	err = self.db.WithContext(ctx).
		Transaction(func(tx *gorm.DB) (err error) {
			err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&ark, "sip_id = ?", sipID).
				Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					err = ErrRecordNotFound
				}
				return
			}

			var sip model.Sip
			err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&sip, "id = ?", sipID).
				Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					err = ErrSipNotFound
				}
				return
			}

			err = f(&ark, &sip)
			if err != nil {
				return
			}

			err = tx.Save(&ark).Error
			if err != nil {
				return
			}

			return tx.Save(&sip).Error
		})
	if err != nil {
		if isUniqueViolation(err) {
			err = ErrAccessionConflict
		}
		return
	}

	out = &ark
	return
}

func (self *DbStore) SelectDue(ctx context.Context, cutoff time.Time, limit int) (out []*model.Archive, err error) {
	err = self.db.WithContext(ctx).
		Where("status = ? AND updated_at <= ?", model.StatusNew, cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&out).
		Error
	return
}

func isUniqueViolation(err error) bool {
	// 23505 is Postgres' unique_violation
	return strings.Contains(err.Error(), "23505") ||
		strings.Contains(err.Error(), "duplicate key")
}
