package archive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"archiver/src/utils/archivematica"
	"archiver/src/utils/config"
	"archiver/src/utils/events"
	"archiver/src/utils/model"
	monitor_archiver "archiver/src/utils/monitoring/archiver"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

type ServerTestSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
	config *config.Config

	store     *memStore
	authority *fakeAuthority
	server    *Server
	input     chan *SipCreated
	sipID     uuid.UUID
	accession string
}

func (s *ServerTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
}

func (s *ServerTestSuite) TearDownSuite() {
	s.cancel()
}

func (s *ServerTestSuite) SetupTest() {
	s.config = config.Default()
	s.store = newMemStore()
	s.authority = &fakeAuthority{}
	s.input = make(chan *SipCreated, 1)

	monitor := monitor_archiver.NewMonitor()

	orchestrator := NewOrchestrator(s.config).
		WithStore(s.store).
		WithBackend(backendFunc(func(ctx context.Context, sip *model.Sip, accessionID string, destination string) error {
			return nil
		})).
		WithBus(events.NewBus()).
		WithMonitor(monitor)

	poller := NewPoller(s.config).
		WithAuthority(s.authority).
		WithOrchestrator(orchestrator).
		WithMonitor(monitor)

	sweeper := NewSweeper(s.config).
		WithStore(s.store).
		WithOrchestrator(orchestrator).
		WithMonitor(monitor)

	s.server = NewServer(s.config).
		WithStore(s.store).
		WithOrchestrator(orchestrator).
		WithPoller(poller).
		WithSweeper(sweeper).
		WithInputChannel(s.input).
		WithMonitor(monitor)
	s.server.registerRoutes()

	s.sipID = uuid.New()
	s.accession = CreateAccessionID(s.config.Archiver.OrganizationName, s.sipID)
	s.store.addSip(&model.Sip{ID: s.sipID, Name: "web-crawl", Archivable: true})

	s.NoError(orchestrator.Start(s.ctx, s.sipID, ""))
}

func (s *ServerTestSuite) request(method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	s.server.Router.ServeHTTP(recorder, req)
	return recorder
}

func (s *ServerTestSuite) TestHealth() {
	recorder := s.request(http.MethodGet, "/v1/health", "")
	s.Equal(http.StatusOK, recorder.Code)
}

func (s *ServerTestSuite) TestMetrics() {
	recorder := s.request(http.MethodGet, "/v1/metrics", "")
	s.Equal(http.StatusOK, recorder.Code)
	s.Contains(recorder.Body.String(), "transfers_started")
}

func (s *ServerTestSuite) TestGetArchive() {
	recorder := s.request(http.MethodGet, "/v1/archives/"+s.accession, "")
	s.Equal(http.StatusOK, recorder.Code)

	var response archiveResponse
	s.NoError(json.Unmarshal(recorder.Body.Bytes(), &response))
	s.Equal(s.sipID, response.SipID)
	s.Equal(model.StatusWaiting, response.Status)
	s.Equal(s.accession, response.AccessionID)
}

func (s *ServerTestSuite) TestGetArchiveNotFound() {
	recorder := s.request(http.MethodGet, "/v1/archives/CERN-sip-missing", "")
	s.Equal(http.StatusNotFound, recorder.Code)
}

func (s *ServerTestSuite) TestGetArchiveRealReconcilesAndCaches() {
	externalID := uuid.New()
	_, err := s.store.UpdateArchive(s.ctx, s.sipID, func(ark *model.Archive, sip *model.Sip) error {
		ark.ArchivematicaID = uuid.NullUUID{UUID: externalID, Valid: true}
		return nil
	})
	s.NoError(err)

	s.authority.transfer = func(unitID string) (*archivematica.UnitStatus, error) {
		return &archivematica.UnitStatus{Status: "SIP_PROCESSING"}, nil
	}

	recorder := s.request(http.MethodGet, "/v1/archives/"+s.accession+"?real=true", "")
	s.Equal(http.StatusOK, recorder.Code)

	var response archiveResponse
	s.NoError(json.Unmarshal(recorder.Body.Bytes(), &response))
	s.Equal(model.StatusProcessingTransfer, response.Status)

	// Second call answers from the cache, Archivematica is asked once
	recorder = s.request(http.MethodGet, "/v1/archives/"+s.accession+"?real=true", "")
	s.Equal(http.StatusOK, recorder.Code)
	s.Equal(1, s.authority.transferCalls)
}

func (s *ServerTestSuite) TestGetArchiveRealFailureReportsUpstream() {
	externalID := uuid.New()
	_, err := s.store.UpdateArchive(s.ctx, s.sipID, func(ark *model.Archive, sip *model.Sip) error {
		ark.ArchivematicaID = uuid.NullUUID{UUID: externalID, Valid: true}
		return nil
	})
	s.NoError(err)

	s.authority.transfer = func(unitID string) (*archivematica.UnitStatus, error) {
		return nil, &archivematica.Error{StatusCode: http.StatusBadGateway, Endpoint: "transfer/status", Body: "down"}
	}
	s.authority.ingest = func(unitID string) (*archivematica.UnitStatus, error) {
		return nil, &archivematica.Error{StatusCode: http.StatusBadGateway, Endpoint: "ingest/status", Body: "down"}
	}

	recorder := s.request(http.MethodGet, "/v1/archives/"+s.accession+"?real=true", "")
	s.Equal(http.StatusBadGateway, recorder.Code)
}

func (s *ServerTestSuite) TestPatchArchive() {
	externalID := uuid.New()
	body := `{"status": "PROCESSING_TRANSFER", "archivematica_id": "` + externalID.String() + `"}`

	recorder := s.request(http.MethodPatch, "/v1/archives/"+s.accession, body)
	s.Equal(http.StatusOK, recorder.Code)

	ark, err := s.store.GetArchive(s.ctx, s.sipID)
	s.NoError(err)
	s.Equal(model.StatusProcessingTransfer, ark.Status)
	s.Equal(externalID, ark.ArchivematicaID.UUID)
}

func (s *ServerTestSuite) TestPatchArchiveRejectsUnknownStatus() {
	recorder := s.request(http.MethodPatch, "/v1/archives/"+s.accession, `{"status": "EXPLODED"}`)
	s.Equal(http.StatusBadRequest, recorder.Code)
}

func (s *ServerTestSuite) TestSweep() {
	// A second SIP that never got its start
	otherID := uuid.New()
	s.store.addSip(&model.Sip{ID: otherID, Name: "backlog", Archivable: true})
	_, _, err := s.store.CreateArchive(s.ctx, otherID, model.StatusNew)
	s.NoError(err)

	recorder := s.request(http.MethodPost, "/v1/sweep?older_than=0s", "")
	s.Equal(http.StatusOK, recorder.Code)
	s.Contains(recorder.Body.String(), `"swept":1`)

	ark, err := s.store.GetArchive(s.ctx, otherID)
	s.NoError(err)
	s.Equal(model.StatusWaiting, ark.Status)
}

func (s *ServerTestSuite) TestSipCreatedIntake() {
	sipID := uuid.New()
	recorder := s.request(http.MethodPost, "/v1/events/sip-created", `{"sip_id": "`+sipID.String()+`"}`)
	s.Equal(http.StatusAccepted, recorder.Code)

	event := <-s.input
	s.Equal(sipID, event.SipID)

	// Queue of size one is now full
	recorder = s.request(http.MethodPost, "/v1/events/sip-created", `{"sip_id": "`+sipID.String()+`"}`)
	s.Equal(http.StatusAccepted, recorder.Code)
	recorder = s.request(http.MethodPost, "/v1/events/sip-created", `{"sip_id": "`+sipID.String()+`"}`)
	s.Equal(http.StatusServiceUnavailable, recorder.Code)
}

func (s *ServerTestSuite) TestSipCreatedRejectsMissingID() {
	recorder := s.request(http.MethodPost, "/v1/events/sip-created", `{}`)
	s.Equal(http.StatusBadRequest, recorder.Code)
}

func (s *ServerTestSuite) TestDownloadRequiresRegistered() {
	recorder := s.request(http.MethodGet, "/v1/archives/"+s.accession+"/file", "")
	s.Equal(http.StatusConflict, recorder.Code)
}
