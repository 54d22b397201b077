package archive

import (
	"context"
	"testing"
	"time"

	"archiver/src/utils/config"
	"archiver/src/utils/eligibility"
	"archiver/src/utils/model"
	monitor_archiver "archiver/src/utils/monitoring/archiver"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

func TestListenerTestSuite(t *testing.T) {
	suite.Run(t, new(ListenerTestSuite))
}

type ListenerTestSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
	config *config.Config

	store *memStore
}

func (s *ListenerTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.config = config.Default()
}

func (s *ListenerTestSuite) TearDownSuite() {
	s.cancel()
}

func (s *ListenerTestSuite) SetupTest() {
	s.store = newMemStore()
}

func (s *ListenerTestSuite) newListener(policy eligibility.Policy) *Listener {
	return NewListener(s.config).
		WithStore(s.store).
		WithPolicy(policy).
		WithMonitor(monitor_archiver.NewMonitor())
}

func (s *ListenerTestSuite) TestCreatesNewRecord() {
	sipID := uuid.New()
	s.store.addSip(&model.Sip{ID: sipID, Name: "photos", Archivable: true})

	listener := s.newListener(eligibility.Default)
	listener.handle(&SipCreated{SipID: sipID})

	ark, err := s.store.GetArchive(s.ctx, sipID)
	s.NoError(err)
	s.Equal(model.StatusNew, ark.Status)
}

func (s *ListenerTestSuite) TestIneligibleSipIsIgnored() {
	sipID := uuid.New()
	s.store.addSip(&model.Sip{ID: sipID, Name: "draft", Archivable: false})

	listener := s.newListener(eligibility.Default)
	listener.handle(&SipCreated{SipID: sipID})

	ark, err := s.store.GetArchive(s.ctx, sipID)
	s.NoError(err)
	s.Equal(model.StatusIgnored, ark.Status)
}

func (s *ListenerTestSuite) TestDuplicateEventIsNoop() {
	sipID := uuid.New()
	s.store.addSip(&model.Sip{ID: sipID, Name: "photos", Archivable: true})

	listener := s.newListener(eligibility.Default)
	listener.handle(&SipCreated{SipID: sipID})

	// Move the record forward, then redeliver the creation event
	_, err := s.store.UpdateArchive(s.ctx, sipID, func(ark *model.Archive, sip *model.Sip) error {
		ark.Status = model.StatusWaiting
		return nil
	})
	s.NoError(err)

	listener.handle(&SipCreated{SipID: sipID})

	ark, err := s.store.GetArchive(s.ctx, sipID)
	s.NoError(err)
	s.Equal(model.StatusWaiting, ark.Status)
}

func (s *ListenerTestSuite) TestUnknownSipIsDropped() {
	listener := s.newListener(eligibility.Default)
	listener.handle(&SipCreated{SipID: uuid.New()})
	s.Empty(s.store.archives)
}

func (s *ListenerTestSuite) TestLifecycle() {
	sipID := uuid.New()
	s.store.addSip(&model.Sip{ID: sipID, Name: "photos", Archivable: true})

	listener := s.newListener(eligibility.All)
	s.NoError(listener.Start())

	listener.GetChannel() <- &SipCreated{SipID: sipID}

	s.Eventually(func() bool {
		_, err := s.store.GetArchive(s.ctx, sipID)
		return err == nil
	}, time.Second, 10*time.Millisecond)

	listener.StopWait()
}
