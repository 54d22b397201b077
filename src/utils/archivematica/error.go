package archivematica

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrFailedToParse = errors.New("failed to parse response")

// Non-success answer from Archivematica. Carries the upstream status code so
// callers can report it instead of masking it.
type Error struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (self *Error) Error() string {
	return fmt.Sprintf("archivematica replied %d on %s", self.StatusCode, self.Endpoint)
}

func IsNotFound(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}
