package cyclic

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var clog zerolog.Logger

func init() {
	clog = log.With().Str("component", "cyclic").Logger()
}

var (
	// ErrUsage is returned when a list is structurally changed, partitioned,
	// or iterated a second time while an iteration is open.
	ErrUsage = errors.New("list is being iterated")

	// ErrConcurrentModification is returned when an iterator observes a
	// version it did not start with, or when an internal copy computes an
	// index outside of the storage it is working on.
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrCapacity is returned for capacities that cannot be represented.
	ErrCapacity = errors.New("capacity not representable")

	// ErrOutOfRange is returned for positions outside of the list.
	ErrOutOfRange = errors.New("index out of range")
)

// errIndex is the copy engine's result for an out of bounds computation.
var errIndex = errors.New("storage index out of bounds")

// concurrencyFault converts an internal indexing failure into
// ErrConcurrentModification. Anything else passes through untouched.
func concurrencyFault(op string, err error) error {
	if err == nil || !errors.Is(err, errIndex) {
		return err
	}
	clog.Warn().Str("op", op).Err(err).Msg("List changed underneath an operation")
	return fmt.Errorf("%w: %s: %s", ErrConcurrentModification, op, err)
}

func outOfRange(index, size int) error {
	return fmt.Errorf("%w: index %d, size %d", ErrOutOfRange, index, size)
}
