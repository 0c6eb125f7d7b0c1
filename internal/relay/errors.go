package relay

// Error codes for relay failures surfaced to the client.
const (
	ErrCodeUnauthenticated = "unauthenticated"
	ErrCodeQuotaExceeded   = "quota_exceeded"
	ErrCodeNotFound        = "not_found"
	ErrCodePlatformFailed  = "platform_failed"
	ErrCodeTicketMapping   = "ticket_mapping"
)

// Error wraps a code and a human-readable message for the client.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func relayError(code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}
