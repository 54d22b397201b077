package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"archiver/src/utils/config"
	"archiver/src/utils/events"
	"archiver/src/utils/logger"
	"archiver/src/utils/model"
	"archiver/src/utils/monitoring"
	"archiver/src/utils/transfer"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Advances archive records through the state machine. Every operation is a
// self-contained unit of work: it re-fetches the record, persists the
// transition and only then emits the matching notification, so at-least-once
// redelivery by a task queue is safe.
type Orchestrator struct {
	store   Store
	backend transfer.Backend
	bus     *events.Bus
	monitor monitoring.Monitor
	config  *config.Config
	log     *logrus.Entry
}

func NewOrchestrator(config *config.Config) (self *Orchestrator) {
	self = new(Orchestrator)
	self.config = config
	self.log = logger.NewSublogger("orchestrator")
	return
}

func (self *Orchestrator) WithStore(store Store) *Orchestrator {
	self.store = store
	return self
}

func (self *Orchestrator) WithBackend(backend transfer.Backend) *Orchestrator {
	self.backend = backend
	return self
}

func (self *Orchestrator) WithBus(bus *events.Bus) *Orchestrator {
	self.bus = bus
	return self
}

func (self *Orchestrator) WithMonitor(monitor monitoring.Monitor) *Orchestrator {
	self.monitor = monitor
	return self
}

// Accession id in the organization's naming scheme
func CreateAccessionID(organization string, sipID uuid.UUID) string {
	return fmt.Sprintf("%s-sip-%s", organization, sipID)
}

// Moves the record to WAITING and hands the package to the transfer backend.
// The record is created on the fly when missing. The WAITING transition is
// committed before the backend runs, a backend failure is handled here and
// turns into FAILED_TRANSFER - it is never propagated as an error.
func (self *Orchestrator) Start(ctx context.Context, sipID uuid.UUID, accessionID string) (err error) {
	// Get or create the archive row
	_, created, err := self.store.CreateArchive(ctx, sipID, model.StatusNew)
	if err != nil {
		self.monitor.GetReport().Archiver.Errors.DbError.Inc()
		return fmt.Errorf("%w: %s", ErrRecordNotFound, err)
	}
	if created {
		self.log.WithField("sip_id", sipID).Debug("Archive row created lazily by start")
	}

	var sip model.Sip
	ark, err := self.store.UpdateArchive(ctx, sipID, func(ark *model.Archive, s *model.Sip) error {
		if !ark.AccessionID.Valid || ark.AccessionID.String == "" {
			target := accessionID
			if target == "" {
				target = CreateAccessionID(self.config.Archiver.OrganizationName, s.ID)
			}
			ark.AccessionID = sql.NullString{String: target, Valid: true}
		}
		ark.Status = model.StatusWaiting
		sip = *s
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAccessionConflict) {
			self.monitor.GetReport().Archiver.Errors.AccessionConflict.Inc()
		} else {
			self.monitor.GetReport().Archiver.Errors.DbError.Inc()
		}
		return
	}

	// The record is committed as WAITING, now move the bytes. The transfer
	// happens outside any transaction and carries its own timeout.
	transferCtx, cancel := context.WithTimeout(ctx, self.config.Archiver.TransferTimeout)
	defer cancel()

	err = self.backend.Transfer(transferCtx, &sip, ark.AccessionID.String, self.config.Archiver.TransferDestination)
	if err != nil {
		self.log.WithError(err).WithField("sip_id", sipID).Error("Transfer backend failed")
		self.monitor.GetReport().Archiver.Errors.TransferError.Inc()
		return self.failTransfer(ctx, sipID)
	}

	self.monitor.GetReport().Archiver.State.TransfersStarted.Inc()
	self.emit(events.SignalTransferStarted, ark)
	return nil
}

// Failure branch of start. Recovered locally, hence no error on success.
func (self *Orchestrator) failTransfer(ctx context.Context, sipID uuid.UUID) (err error) {
	ark, err := self.store.UpdateArchive(ctx, sipID, func(ark *model.Archive, sip *model.Sip) error {
		ark.Status = model.StatusFailedTransfer
		sip.Archived = false
		return nil
	})
	if err != nil {
		self.monitor.GetReport().Archiver.Errors.DbError.Inc()
		return
	}

	self.monitor.GetReport().Archiver.State.TransfersFailed.Inc()
	self.emit(events.SignalTransferFailed, ark)
	return nil
}

// Archivematica acknowledged the package and is processing the transfer phase
func (self *Orchestrator) MarkProcessingTransfer(ctx context.Context, sipID uuid.UUID, archivematicaID string) (err error) {
	return self.markProcessing(ctx, sipID, archivematicaID, model.StatusProcessingTransfer)
}

// The external pipeline moved on to building the AIP
func (self *Orchestrator) MarkProcessingAip(ctx context.Context, sipID uuid.UUID, archivematicaID string) (err error) {
	return self.markProcessing(ctx, sipID, archivematicaID, model.StatusProcessingAip)
}

func (self *Orchestrator) markProcessing(ctx context.Context, sipID uuid.UUID, archivematicaID string, status model.ArchiveStatus) (err error) {
	externalID, err := parseArchivematicaID(archivematicaID)
	if err != nil {
		return
	}

	ark, err := self.store.UpdateArchive(ctx, sipID, func(ark *model.Archive, sip *model.Sip) error {
		ark.Status = status
		if externalID.Valid {
			ark.ArchivematicaID = externalID
		}
		return nil
	})
	if err != nil {
		self.monitor.GetReport().Archiver.Errors.DbError.Inc()
		return
	}

	self.emit(events.SignalTransferProcessing, ark)
	return nil
}

// The AIP is stored, the SIP is archived
func (self *Orchestrator) Finish(ctx context.Context, sipID uuid.UUID, archivematicaID string) (err error) {
	externalID, err := parseArchivematicaID(archivematicaID)
	if err != nil {
		return
	}

	ark, err := self.store.UpdateArchive(ctx, sipID, func(ark *model.Archive, sip *model.Sip) error {
		ark.Status = model.StatusRegistered
		if externalID.Valid {
			ark.ArchivematicaID = externalID
		}
		sip.Archived = true
		return nil
	})
	if err != nil {
		self.monitor.GetReport().Archiver.Errors.DbError.Inc()
		return
	}

	self.monitor.GetReport().Archiver.State.TransfersFinished.Inc()
	self.emit(events.SignalTransferFinished, ark)
	return nil
}

// Marks archiving as failed. duringTransfer keeps FAILED_TRANSFER distinct,
// a fresh start may still be attempted from it.
func (self *Orchestrator) Fail(ctx context.Context, sipID uuid.UUID, duringTransfer bool) (err error) {
	status := model.StatusFailed
	if duringTransfer {
		status = model.StatusFailedTransfer
	}

	ark, err := self.store.UpdateArchive(ctx, sipID, func(ark *model.Archive, sip *model.Sip) error {
		ark.Status = status
		sip.Archived = false
		return nil
	})
	if err != nil {
		self.monitor.GetReport().Archiver.Errors.DbError.Inc()
		return
	}

	self.monitor.GetReport().Archiver.State.TransfersFailed.Inc()
	self.emit(events.SignalTransferFailed, ark)
	return nil
}

func (self *Orchestrator) emit(signal events.Signal, ark *model.Archive) {
	accessionID := ""
	if ark.AccessionID.Valid {
		accessionID = ark.AccessionID.String
	}

	self.bus.Publish(&events.Notification{
		Signal:      signal,
		SipID:       ark.SipID,
		AccessionID: accessionID,
		Status:      ark.Status,
		OccurredAt:  time.Now(),
	})
	self.monitor.GetReport().Archiver.State.NotificationsEmitted.Inc()
}

func parseArchivematicaID(archivematicaID string) (out uuid.NullUUID, err error) {
	if archivematicaID == "" {
		return
	}

	id, err := uuid.Parse(archivematicaID)
	if err != nil {
		err = fmt.Errorf("invalid archivematica id: %w", err)
		return
	}
	out = uuid.NullUUID{UUID: id, Valid: true}
	return
}
