package model

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

func TestArchiveStatusTestSuite(t *testing.T) {
	suite.Run(t, new(ArchiveStatusTestSuite))
}

type ArchiveStatusTestSuite struct {
	suite.Suite
}

func (s *ArchiveStatusTestSuite) TestConvertArchivematicaVocabulary() {
	status, err := Convert("COMPLETE", false)
	s.NoError(err)
	s.Equal(StatusRegistered, status)

	status, err = Convert("REJECTED", false)
	s.NoError(err)
	s.Equal(StatusFailed, status)

	status, err = Convert("USER_INPUT", true)
	s.NoError(err)
	s.Equal(StatusFailed, status)

	status, err = Convert("SIP_PROCESSING", true)
	s.NoError(err)
	s.Equal(StatusProcessingTransfer, status)

	status, err = Convert("AIP_PROCESSING", false)
	s.NoError(err)
	s.Equal(StatusProcessingAip, status)
}

func (s *ArchiveStatusTestSuite) TestConvertProcessingDependsOnPhase() {
	status, err := Convert("PROCESSING", false)
	s.NoError(err)
	s.Equal(StatusProcessingTransfer, status)

	status, err = Convert("PROCESSING", true)
	s.NoError(err)
	s.Equal(StatusProcessingAip, status)
}

func (s *ArchiveStatusTestSuite) TestConvertOwnVocabularyPassesThrough() {
	for _, own := range []ArchiveStatus{
		StatusNew, StatusWaiting, StatusProcessingTransfer, StatusFailedTransfer,
		StatusProcessingAip, StatusRegistered, StatusFailed, StatusIgnored, StatusDeleted,
	} {
		status, err := Convert(string(own), false)
		s.NoError(err)
		s.Equal(own, status)
	}
}

func (s *ArchiveStatusTestSuite) TestConvertUnknown() {
	_, err := Convert("BACKLOG", false)
	s.ErrorIs(err, ErrUnknownStatus)

	// Matching is case sensitive
	_, err = Convert("complete", false)
	s.ErrorIs(err, ErrUnknownStatus)

	_, err = Convert("", true)
	s.ErrorIs(err, ErrUnknownStatus)
}

func (s *ArchiveStatusTestSuite) TestScanValue() {
	var status ArchiveStatus
	s.NoError(status.Scan("REGISTERED"))
	s.Equal(StatusRegistered, status)

	value, err := StatusWaiting.Value()
	s.NoError(err)
	s.Equal("WAITING", value)
}

func (s *ArchiveStatusTestSuite) TestTitles() {
	for _, status := range []ArchiveStatus{
		StatusNew, StatusWaiting, StatusProcessingTransfer, StatusFailedTransfer,
		StatusProcessingAip, StatusRegistered, StatusFailed, StatusIgnored, StatusDeleted,
	} {
		s.True(status.IsValid())
		s.NotEmpty(status.Title())
	}
	s.False(ArchiveStatus("BACKLOG").IsValid())
}
