package archivematica

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"archiver/src/utils/config"

	"github.com/stretchr/testify/suite"
)

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

type ClientTestSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc

	server  *httptest.Server
	handler http.HandlerFunc
}

func (s *ClientTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.handler(w, r)
	}))
}

func (s *ClientTestSuite) TearDownSuite() {
	s.server.Close()
	s.cancel()
}

func (s *ClientTestSuite) newClient() *Client {
	return NewClient(&config.Archivematica{
		Url:             s.server.URL,
		StorageUrl:      s.server.URL,
		Username:        "archiver",
		ApiKey:          "secret",
		RequestTimeout:  5 * time.Second,
		DialerTimeout:   time.Second,
		IdleConnTimeout: 30 * time.Second,
		RateInterval:    time.Millisecond,
	})
}

func (s *ClientTestSuite) TestGetTransferStatus() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/api/transfer/status/unit-1/", r.URL.Path)
		s.Equal("archiver", r.URL.Query().Get("username"))
		s.Equal("secret", r.URL.Query().Get("api_key"))

		w.Header().Set("Content-Type", "application/json")
		s.NoError(json.NewEncoder(w).Encode(UnitStatus{
			Status:       "PROCESSING",
			Name:         "thesis-2024",
			Type:         "transfer",
			Microservice: "Verify transfer compliance",
		}))
	}

	status, err := s.newClient().GetTransferStatus(s.ctx, "unit-1")
	s.NoError(err)
	s.Equal("PROCESSING", status.Status)
	s.Equal("thesis-2024", status.Name)
	s.Empty(status.SipUuid)
}

func (s *ClientTestSuite) TestGetIngestStatusCarriesSipUuid() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/api/ingest/status/unit-2/", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		s.NoError(json.NewEncoder(w).Encode(UnitStatus{
			Status:  "COMPLETE",
			Type:    "SIP",
			SipUuid: "0a1b2c3d-0000-0000-0000-000000000000",
		}))
	}

	status, err := s.newClient().GetIngestStatus(s.ctx, "unit-2")
	s.NoError(err)
	s.Equal("COMPLETE", status.Status)
	s.Equal("0a1b2c3d-0000-0000-0000-000000000000", status.SipUuid)
}

func (s *ClientTestSuite) TestNonSuccessBecomesError() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, err := w.Write([]byte("upstream down"))
		s.NoError(err)
	}

	_, err := s.newClient().GetTransferStatus(s.ctx, "unit-3")
	s.Error(err)

	var apiErr *Error
	s.ErrorAs(err, &apiErr)
	s.Equal(http.StatusBadGateway, apiErr.StatusCode)
	s.Contains(apiErr.Body, "upstream down")
	s.False(IsNotFound(err))
}

func (s *ClientTestSuite) TestNotFound() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}

	_, err := s.newClient().GetIngestStatus(s.ctx, "unit-4")
	s.True(IsNotFound(err))
}

func (s *ClientTestSuite) TestDownloadAipNonSuccess() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, err := w.Write([]byte("storage down"))
		s.NoError(err)
	}

	var buffer bytes.Buffer
	err := s.newClient().DownloadAip(s.ctx, "aip-2", &buffer)
	s.Error(err)

	var apiErr *Error
	s.ErrorAs(err, &apiErr)
	s.Equal(http.StatusBadGateway, apiErr.StatusCode)
	s.Contains(apiErr.Body, "storage down")

	// The error page never reaches the caller's writer
	s.Zero(buffer.Len())
}

func (s *ClientTestSuite) TestDownloadAipStreams() {
	payload := bytes.Repeat([]byte("aip"), 1024)
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/api/v2/file/aip-1/download/", r.URL.Path)
		_, err := w.Write(payload)
		s.NoError(err)
	}

	var buffer bytes.Buffer
	err := s.newClient().DownloadAip(s.ctx, "aip-1", &buffer)
	s.NoError(err)
	s.Equal(payload, buffer.Bytes())
}
