package transfer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"archiver/src/utils/config"
	"archiver/src/utils/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

func TestCopyTestSuite(t *testing.T) {
	suite.Run(t, new(CopyTestSuite))
}

type CopyTestSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
	config *config.Archiver

	source      string
	destination string
	sip         *model.Sip
}

func (s *CopyTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
}

func (s *CopyTestSuite) TearDownSuite() {
	s.cancel()
}

func (s *CopyTestSuite) SetupTest() {
	s.source = s.T().TempDir()
	s.destination = s.T().TempDir()
	s.config = &config.Archiver{TransferSourceFolder: s.source}
	s.sip = &model.Sip{ID: uuid.New(), Name: "images"}

	// Staged package: one file at the top, one nested
	staged := filepath.Join(s.source, s.sip.ID.String())
	s.NoError(os.MkdirAll(filepath.Join(staged, "objects"), 0750))
	s.NoError(os.WriteFile(filepath.Join(staged, "metadata.json"), []byte(`{"title": "images"}`), 0640))
	s.NoError(os.WriteFile(filepath.Join(staged, "objects", "scan-001.tiff"), []byte("tiff bytes"), 0640))
}

func (s *CopyTestSuite) TestTransfer() {
	backend := NewCopy(s.config)

	err := backend.Transfer(s.ctx, s.sip, "CERN-sip-test", s.destination)
	s.NoError(err)

	data, err := os.ReadFile(filepath.Join(s.destination, "CERN-sip-test", "metadata.json"))
	s.NoError(err)
	s.Equal(`{"title": "images"}`, string(data))

	data, err = os.ReadFile(filepath.Join(s.destination, "CERN-sip-test", "objects", "scan-001.tiff"))
	s.NoError(err)
	s.Equal("tiff bytes", string(data))
}

func (s *CopyTestSuite) TestTransferMissingPackage() {
	backend := NewCopy(s.config)

	err := backend.Transfer(s.ctx, &model.Sip{ID: uuid.New()}, "CERN-sip-missing", s.destination)
	s.Error(err)
}

func (s *CopyTestSuite) TestTransferCancelledContext() {
	backend := NewCopy(s.config)

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	err := backend.Transfer(ctx, s.sip, "CERN-sip-cancelled", s.destination)
	s.ErrorIs(err, context.Canceled)
}

func (s *CopyTestSuite) TestRegistry() {
	for _, name := range []string{"copy", "rsync", "push"} {
		backend, err := Get(name, s.config)
		s.NoError(err)
		s.NotNil(backend)
	}

	_, err := Get("teleport", s.config)
	s.Error(err)
}
