package engine

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package (and by hub/lobby) wraps
// exactly one of them.
var (
	ErrNotFound = errors.New("not found")
	ErrFull     = errors.New("full")
	ErrRejected = errors.New("rejected")
	ErrNoOp     = errors.New("no-op")
)

var (
	ErrRoomNotFound  = fmt.Errorf("%w: room", ErrNotFound)
	ErrRoomFull      = fmt.Errorf("%w: room is at capacity", ErrFull)
	ErrNotMember     = fmt.Errorf("%w: not a member of this room", ErrRejected)
	ErrAlreadyMember = fmt.Errorf("%w: already a member of this room", ErrRejected)
	ErrRoundActive   = fmt.Errorf("%w: a round is already active", ErrRejected)
	ErrNoActiveRound = fmt.Errorf("%w: no active round", ErrRejected)
	ErrDrawerGuess   = fmt.Errorf("%w: the drawer cannot guess", ErrRejected)
	ErrEmptyGuess    = fmt.Errorf("%w: empty guess", ErrRejected)
	ErrNotInRoom     = fmt.Errorf("%w: participant is not in a room", ErrNoOp)
)

// Kind reduces err to one of the four kinds, or nil if it is none of them.
func Kind(err error) error {
	for _, k := range []error{ErrNotFound, ErrFull, ErrRejected, ErrNoOp} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
