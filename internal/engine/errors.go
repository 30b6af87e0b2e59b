package engine

import (
	"errors"

	"github.com/verte-zerg/stride/internal/interval"
)

var (
	// ErrUnknownShoe reports an operation on a shoe id that does not exist.
	ErrUnknownShoe = errors.New("unknown shoe")
	// ErrShoeArchived reports a mutation attempted on a retired shoe.
	ErrShoeArchived = errors.New("shoe is archived")
	// ErrNoActiveSession reports a stop without an open session.
	ErrNoActiveSession = errors.New("no active session")
	// ErrInvalidInterval reports a malformed or empty interval.
	ErrInvalidInterval = interval.ErrInvalid
)
