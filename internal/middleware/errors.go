package middleware

// Error codes emitted by middleware; handlers reuse ErrorCodeInternal so
// clients see one vocabulary across the API.
const (
	ErrorCodeInternal          = "INTERNAL_ERROR"
	ErrorCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrorCodeRequestTimeout    = "REQUEST_TIMEOUT"
)

// Client-facing messages paired with the codes above.
const (
	ErrorMessageInternal          = "An unexpected error occurred"
	ErrorMessageRateLimitExceeded = "Too many requests, try again later"
	ErrorMessageRequestTimeout    = "Request took too long to process"
)
