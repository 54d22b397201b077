package archive

import (
	"context"
	"errors"
	"fmt"

	"archiver/src/utils/archivematica"
	"archiver/src/utils/config"
	"archiver/src/utils/logger"
	"archiver/src/utils/model"
	"archiver/src/utils/monitoring"

	"github.com/sirupsen/logrus"
)

// Local status has no forward orchestrator operation, so the upstream answer
// cannot be applied to it
var ErrNotReconcilable = errors.New("status is not a valid reconciliation target")

// Subset of the Archivematica client the poller needs
type Authority interface {
	GetTransferStatus(ctx context.Context, unitId string) (*archivematica.UnitStatus, error)
	GetIngestStatus(ctx context.Context, unitId string) (*archivematica.UnitStatus, error)
}

// Asks the external authority for the true status of a record and re-drives
// the orchestrator to converge on it
type Poller struct {
	authority    Authority
	orchestrator *Orchestrator
	monitor      monitoring.Monitor
	config       *config.Config
	log          *logrus.Entry
}

func NewPoller(config *config.Config) (self *Poller) {
	self = new(Poller)
	self.config = config
	self.log = logger.NewSublogger("poller")
	return
}

func (self *Poller) WithAuthority(authority Authority) *Poller {
	self.authority = authority
	return self
}

func (self *Poller) WithOrchestrator(orchestrator *Orchestrator) *Poller {
	self.orchestrator = orchestrator
	return self
}

func (self *Poller) WithMonitor(monitor monitoring.Monitor) *Poller {
	self.monitor = monitor
	return self
}

// Returns the current status of the record, reconciled against the external
// authority when force is set. Without force, for records already FAILED and
// for records that never reached Archivematica the stored status is returned
// as is. A failed or inconclusive poll leaves local state untouched.
func (self *Poller) PollAndReconcile(ctx context.Context, ark *model.Archive, force bool) (status model.ArchiveStatus, err error) {
	status = ark.Status

	if !force || ark.Status == model.StatusFailed || !ark.ArchivematicaID.Valid {
		return
	}

	self.monitor.GetReport().Archiver.State.Reconciliations.Inc()
	log := self.log.WithField("sip_id", ark.SipID)

	unitID := ark.ArchivematicaID.UUID.String()
	converted, externalID, err := self.queryAuthority(ctx, unitID)
	if err != nil {
		if errors.Is(err, model.ErrUnknownStatus) {
			// Inconclusive answer, keep the last known good status
			self.monitor.GetReport().Archiver.Errors.UnknownStatusError.Inc()
			log.WithError(err).Error("Authority returned unmappable status")
		}
		return
	}

	if converted == ark.Status {
		self.monitor.GetReport().Archiver.State.ReconciliationsNoop.Inc()
		return
	}

	err = self.dispatch(ctx, ark, converted, externalID)
	if err != nil {
		return
	}

	self.monitor.GetReport().Archiver.State.ReconciliationsMoved.Inc()
	log.WithFields(logrus.Fields{"from": ark.Status, "to": converted}).Info("Record reconciled")
	status = converted
	return
}

// Transfer endpoint first, ingest endpoint when the unit moved past the
// transfer phase or the transfer endpoint no longer knows it. Both failing
// is propagated with the upstream error attached.
func (self *Poller) queryAuthority(ctx context.Context, unitID string) (status model.ArchiveStatus, externalID string, err error) {
	externalID = unitID

	unit, transferErr := self.authority.GetTransferStatus(ctx, unitID)
	if transferErr == nil && unit.SipUuid == "" {
		status, err = model.Convert(unit.Status, false)
		return
	}

	if transferErr == nil {
		// The transfer phase produced a SIP, its id keys the ingest endpoint
		unitID = unit.SipUuid
		externalID = unit.SipUuid
	} else {
		self.monitor.GetReport().Archiver.Errors.PollTransferError.Inc()
	}

	unit, ingestErr := self.authority.GetIngestStatus(ctx, unitID)
	if ingestErr != nil {
		self.monitor.GetReport().Archiver.Errors.PollIngestError.Inc()
		if transferErr != nil {
			err = fmt.Errorf("authority unavailable: transfer: %s, ingest: %w", transferErr, ingestErr)
			return
		}
		err = fmt.Errorf("authority unavailable: ingest: %w", ingestErr)
		return
	}

	status, err = model.Convert(unit.Status, true)
	return
}

func (self *Poller) dispatch(ctx context.Context, ark *model.Archive, status model.ArchiveStatus, externalID string) (err error) {
	accessionID := ""
	if ark.AccessionID.Valid {
		accessionID = ark.AccessionID.String
	}

	switch status {
	case model.StatusWaiting:
		return self.orchestrator.Start(ctx, ark.SipID, accessionID)
	case model.StatusProcessingTransfer:
		return self.orchestrator.MarkProcessingTransfer(ctx, ark.SipID, externalID)
	case model.StatusProcessingAip:
		return self.orchestrator.MarkProcessingAip(ctx, ark.SipID, externalID)
	case model.StatusRegistered:
		return self.orchestrator.Finish(ctx, ark.SipID, externalID)
	case model.StatusFailed:
		return self.orchestrator.Fail(ctx, ark.SipID, false)
	}

	self.monitor.GetReport().Archiver.Errors.ReconciliationInvalid.Inc()
	return fmt.Errorf("%w: %s", ErrNotReconcilable, status)
}
