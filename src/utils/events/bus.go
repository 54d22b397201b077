package events

import (
	"sync"

	"archiver/src/utils/logger"

	"github.com/sirupsen/logrus"
)

// In-process fan-out of transfer notifications. Subscribers get their own
// buffered channel, a slow subscriber loses messages instead of blocking the
// orchestrator.
type Bus struct {
	mtx         sync.RWMutex
	subscribers []chan *Notification
	closed      bool
	log         *logrus.Entry
}

func NewBus() (self *Bus) {
	self = new(Bus)
	self.log = logger.NewSublogger("event-bus")
	return
}

func (self *Bus) Subscribe(buffer int) <-chan *Notification {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	ch := make(chan *Notification, buffer)
	self.subscribers = append(self.subscribers, ch)
	return ch
}

func (self *Bus) Publish(notification *Notification) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	if self.closed {
		return
	}

	for _, ch := range self.subscribers {
		select {
		case ch <- notification:
		default:
			self.log.WithField("signal", notification.Signal).
				WithField("sip_id", notification.SipID).
				Warn("Subscriber queue full, notification dropped")
		}
	}
}

func (self *Bus) Close() {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	if self.closed {
		return
	}
	self.closed = true
	for _, ch := range self.subscribers {
		close(ch)
	}
}
