package ledger

import (
	"errors"
	"fmt"
)

// ErrForceRequired is returned by Recover when called without the force
// flag; recovery without an explicit force is a protocol error, not a
// convenience default.
var ErrForceRequired = errors.New("ledger: recover requires force=true")

// IntegrityError reports a hash-chain verification failure: a mismatched
// entry_hash, a broken previous_hash link, an unparsable line, or a missing
// required field.
type IntegrityError struct {
	Line   int    // 1-indexed line number the failure was found at
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("ledger: integrity violation at line %d: %s", e.Line, e.Reason)
}
