package transfer

import (
	"context"
	"fmt"

	"archiver/src/utils/config"
	"archiver/src/utils/model"
)

// Physically moves a staged package to Archivematica's transfer source.
// A non-nil error means the transfer failed, there are no partial successes.
type Backend interface {
	// Moves the package staged for the SIP into destination, under a
	// directory named after the accession id. Honors ctx cancellation.
	Transfer(ctx context.Context, sip *model.Sip, accessionID string, destination string) error
}

type constructor func(config *config.Archiver) Backend

var registry = map[string]constructor{
	"copy":  NewCopy,
	"rsync": NewRsync,
	"push":  NewPush,
}

// Resolves the backend by its configured name. Called once at process start,
// the resolved value gets injected into the orchestrator.
func Get(name string, config *config.Archiver) (backend Backend, err error) {
	create, ok := registry[name]
	if !ok {
		err = fmt.Errorf("unknown transfer backend: %s", name)
		return
	}
	backend = create(config)
	return
}
