package eligibility

import (
	"fmt"

	"archiver/src/utils/model"
)

// Decides whether a SIP should ever be archived. Consulted on every creation
// event, never cached - the answer may change when the SIP's flags change.
type Policy func(sip *model.Sip) bool

// Archive every SIP
func All(sip *model.Sip) bool {
	return true
}

// Archive no SIPs
func None(sip *model.Sip) bool {
	return false
}

// Follow the archivable flag set by the SIP's owner
func Default(sip *model.Sip) bool {
	return sip.Archivable
}

var registry = map[string]Policy{
	"all":     All,
	"none":    None,
	"default": Default,
}

// Resolves the policy by its configured name. Called once at process start,
// the resolved value gets injected into the components that consult it.
func Get(name string) (policy Policy, err error) {
	policy, ok := registry[name]
	if !ok {
		err = fmt.Errorf("unknown eligibility policy: %s", name)
	}
	return
}
