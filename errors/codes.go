package errors

// ErrorCode identifies an application error class on the wire
type ErrorCode int

const (
	// General
	ErrorCode_INTERNAL        ErrorCode = 1000
	ErrorCode_UNAUTHENTICATED ErrorCode = 1004
	ErrorCode_FORBIDDEN       ErrorCode = 1005
	ErrorCode_INVALID_PAYLOAD ErrorCode = 1006

	// Auth
	ErrorCode_AUTH_INVALID_TOKEN ErrorCode = 2000
	ErrorCode_AUTH_TOKEN_EXPIRED ErrorCode = 2001

	// Video call requests
	ErrorCode_REQUEST_NOT_FOUND        ErrorCode = 3000
	ErrorCode_REQUEST_ALREADY_RESOLVED ErrorCode = 3001
	ErrorCode_REQUEST_VALIDATION       ErrorCode = 3002
	ErrorCode_REQUEST_CLEANUP_FAILED   ErrorCode = 3003
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_INTERNAL:                 "INTERNAL",
	ErrorCode_UNAUTHENTICATED:          "UNAUTHENTICATED",
	ErrorCode_FORBIDDEN:                "FORBIDDEN",
	ErrorCode_INVALID_PAYLOAD:          "INVALID_PAYLOAD",
	ErrorCode_AUTH_INVALID_TOKEN:       "AUTH_INVALID_TOKEN",
	ErrorCode_AUTH_TOKEN_EXPIRED:       "AUTH_TOKEN_EXPIRED",
	ErrorCode_REQUEST_NOT_FOUND:        "REQUEST_NOT_FOUND",
	ErrorCode_REQUEST_ALREADY_RESOLVED: "REQUEST_ALREADY_RESOLVED",
	ErrorCode_REQUEST_VALIDATION:       "REQUEST_VALIDATION",
	ErrorCode_REQUEST_CLEANUP_FAILED:   "REQUEST_CLEANUP_FAILED",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalText renders the code by name in JSON bodies
func (c ErrorCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
