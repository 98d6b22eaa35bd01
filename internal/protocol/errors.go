package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Game layer.
	ErrBadRequest         = "E_BAD_REQUEST"
	ErrPreconditionFailed = "E_PRECONDITION_FAILED"
	ErrNoOpenCache        = "E_NO_OPEN_CACHE"
	ErrDeserialization    = "E_DESERIALIZATION"
	ErrInternal           = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:    {},
	ErrBadRequest:         {},
	ErrPreconditionFailed: {},
	ErrNoOpenCache:        {},
	ErrDeserialization:    {},
	ErrInternal:           {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
