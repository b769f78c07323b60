package protocol

// Codes carried in ACTION_RESULT events and close frames.
const (
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	ErrBadRequest    = "E_BAD_REQUEST"
	ErrNoResource    = "E_NO_RESOURCE"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrOutOfReach    = "E_OUT_OF_REACH"
	ErrUnconscious   = "E_UNCONSCIOUS"
	ErrNoProfession  = "E_NO_PROFESSION"
	ErrOutOfStock    = "E_OUT_OF_STOCK"
	ErrCancelled     = "E_CANCELLED"
	ErrInternal      = "E_INTERNAL"
)

var codeMessages = map[string]string{
	ErrProtoBadRequest: "malformed message",
	ErrBadRequest:      "bad request",
	ErrNoResource:      "missing items",
	ErrInvalidTarget:   "invalid target",
	ErrOutOfReach:      "target out of reach",
	ErrUnconscious:     "villager is unconscious",
	ErrNoProfession:    "villager has no profession",
	ErrOutOfStock:      "offer is out of stock",
	ErrCancelled:       "default action cancelled",
	ErrInternal:        "internal error",
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := codeMessages[code]
	return ok
}

// Message is the default human-readable text for code.
func Message(code string) string {
	return codeMessages[code]
}

// CloseReason formats a websocket close reason as "CODE: detail".
func CloseReason(code, detail string) string {
	if detail == "" {
		detail = Message(code)
	}
	return code + ": " + detail
}
