package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Misuse errors, reported by the call that would break an invariant.
const (
	// ErrCodeInvalidArgument indicates an argument outside its valid range.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeUnbounded indicates an operation that needs the whole sequence
	// was applied to a sequence that may never end.
	ErrCodeUnbounded ErrorCode = "UNBOUNDED_SEQUENCE"
	// ErrCodeInvalidPlan indicates a pipeline plan failed validation.
	ErrCodeInvalidPlan ErrorCode = "INVALID_PLAN"
)

// Resource errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeInvalidArgument: false,
	ErrCodeUnbounded:       false,
	ErrCodeInvalidPlan:     false,
	ErrCodeNotFound:        false,
	ErrCodeInternal:        false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
// None of the current codes are; a misused pipeline fails the same way on
// every attempt.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

// ExitCode maps an error code to a process exit status for command-line use.
func ExitCode(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidArgument, ErrCodeInvalidPlan:
		return 2
	case ErrCodeUnbounded:
		return 3
	case ErrCodeNotFound:
		return 4
	default:
		return 1
	}
}
