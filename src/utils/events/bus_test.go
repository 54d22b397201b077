package events

import (
	"testing"
	"time"

	"archiver/src/utils/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

func TestBusTestSuite(t *testing.T) {
	suite.Run(t, new(BusTestSuite))
}

type BusTestSuite struct {
	suite.Suite
}

func (s *BusTestSuite) notification(signal Signal) *Notification {
	return &Notification{
		Signal:     signal,
		SipID:      uuid.New(),
		Status:     model.StatusWaiting,
		OccurredAt: time.Now(),
	}
}

func (s *BusTestSuite) TestFanOut() {
	bus := NewBus()
	first := bus.Subscribe(4)
	second := bus.Subscribe(4)

	published := s.notification(SignalTransferStarted)
	bus.Publish(published)

	s.Equal(published, <-first)
	s.Equal(published, <-second)
}

func (s *BusTestSuite) TestSlowSubscriberLosesInsteadOfBlocking() {
	bus := NewBus()
	slow := bus.Subscribe(1)

	bus.Publish(s.notification(SignalTransferStarted))
	bus.Publish(s.notification(SignalTransferProcessing))

	// Only the first fits the buffer, the second was dropped
	got := <-slow
	s.Equal(SignalTransferStarted, got.Signal)
	select {
	case extra := <-slow:
		s.Fail("unexpected notification", extra.Signal)
	default:
	}
}

func (s *BusTestSuite) TestClose() {
	bus := NewBus()
	subscriber := bus.Subscribe(1)

	bus.Close()
	_, open := <-subscriber
	s.False(open)

	// Publishing after close is a no-op
	bus.Publish(s.notification(SignalTransferFinished))
	bus.Close()
}

func (s *BusTestSuite) TestMarshalBinary() {
	notification := s.notification(SignalTransferFailed)

	data, err := notification.MarshalBinary()
	s.NoError(err)
	s.Contains(string(data), `"signal":"transfer-failed"`)
	s.Contains(string(data), notification.SipID.String())
}
