package archive

import (
	"archiver/src/utils/config"
	"archiver/src/utils/eligibility"
	"archiver/src/utils/model"
	"archiver/src/utils/monitoring"
	"archiver/src/utils/task"

	"github.com/sirupsen/logrus"
)

// Consumes SIP creation events and lazily creates archive rows.
// Duplicate deliveries of the same event are a no-op.
type Listener struct {
	*task.Task

	store   Store
	policy  eligibility.Policy
	monitor monitoring.Monitor

	input chan *SipCreated
}

func NewListener(config *config.Config) (self *Listener) {
	self = new(Listener)

	self.input = make(chan *SipCreated, config.Archiver.ListenerQueueSize)

	self.Task = task.NewTask(config, "listener").
		WithSubtaskFunc(self.run)

	return
}

func (self *Listener) WithStore(store Store) *Listener {
	self.store = store
	return self
}

func (self *Listener) WithPolicy(policy eligibility.Policy) *Listener {
	self.policy = policy
	return self
}

func (self *Listener) WithMonitor(monitor monitoring.Monitor) *Listener {
	self.monitor = monitor
	return self
}

// Channel the event intake writes to
func (self *Listener) GetChannel() chan<- *SipCreated {
	return self.input
}

func (self *Listener) run() (err error) {
	for {
		select {
		case <-self.StopChannel:
			return nil
		case event, ok := <-self.input:
			if !ok {
				return nil
			}
			self.handle(event)
		}
	}
}

func (self *Listener) handle(event *SipCreated) {
	log := self.Log.WithField("sip_id", event.SipID)

	sip, err := self.store.GetSip(self.Ctx, event.SipID)
	if err != nil {
		// Either the SIP vanished or the database is down, the event is
		// dropped and the sweep will pick the record up if the row appears.
		self.monitor.GetReport().Archiver.Errors.DbError.Inc()
		log.WithError(err).Error("Failed to load SIP for creation event")
		return
	}

	status := model.StatusNew
	if !self.policy(sip) {
		status = model.StatusIgnored
	}

	_, created, err := self.store.CreateArchive(self.Ctx, sip.ID, status)
	if err != nil {
		self.monitor.GetReport().Archiver.Errors.DbError.Inc()
		log.WithError(err).Error("Failed to create archive record")
		return
	}

	if !created {
		log.Debug("Archive record already exists, skipping")
		return
	}

	switch status {
	case model.StatusIgnored:
		self.monitor.GetReport().Archiver.State.RecordsIgnored.Inc()
	default:
		self.monitor.GetReport().Archiver.State.RecordsCreated.Inc()
	}

	log.WithFields(logrus.Fields{"status": status}).Info("Archive record created")
}
