package world

import (
	"errors"

	"geocoin.ai/internal/protocol"
)

var (
	// ErrPreconditionFailed reports a stale index, a wrong cell or an item already in the target state.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrNoOpenCache reports a drop with no cache opened by the display.
	ErrNoOpenCache = errors.New("no open cache")
	// ErrDeserialization reports a corrupt or unusable save blob.
	ErrDeserialization = errors.New("deserialization error")
	ErrBadRequest      = errors.New("bad request")
)

// CodeOf maps an error returned by World onto a protocol error code.
func CodeOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPreconditionFailed):
		return protocol.ErrPreconditionFailed
	case errors.Is(err, ErrNoOpenCache):
		return protocol.ErrNoOpenCache
	case errors.Is(err, ErrDeserialization):
		return protocol.ErrDeserialization
	case errors.Is(err, ErrBadRequest):
		return protocol.ErrBadRequest
	default:
		return protocol.ErrInternal
	}
}

// Recoverable reports whether err is part of the normal-play taxonomy.
func Recoverable(err error) bool {
	return errors.Is(err, ErrPreconditionFailed) ||
		errors.Is(err, ErrNoOpenCache) ||
		errors.Is(err, ErrDeserialization) ||
		errors.Is(err, ErrBadRequest)
}
