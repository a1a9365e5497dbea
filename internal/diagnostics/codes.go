package diagnostics

// Error codes for the IR core
const (
	// Codec errors (P prefix)
	ErrMalformedText = "P0001"

	// Verifier errors (V prefix)
	ErrBadVersion         = "V0001"
	ErrNonEmptyFeatures   = "V0002"
	ErrMissingEntry       = "V0003"
	ErrBadFunctionName    = "V0004"
	ErrBadBlockLabel      = "V0005"
	ErrMissingTerminator  = "V0006"
	ErrBadJumpTarget      = "V0007"
	ErrTempOutOfRange     = "V0008"
	ErrUnknownOperator    = "V0009"
	ErrDuplicateField     = "V0010"
	ErrMaybeUninitialized = "V0011"

	// Runtime faults (R prefix)
	ErrTypeMismatch      = "R0001"
	ErrBoundsViolation   = "R0002"
	ErrMissingField      = "R0003"
	ErrMissingVariant    = "R0004"
	ErrUndefinedFunction = "R0005"
	ErrStackOverflow     = "R0006"
	ErrArithmetic        = "R0007"
	ErrUnverified        = "R0008"
)
