package extraction

import "fmt"

// Input error codes. These are the only failures that cross the package
// boundary as errors; everything else degrades to the next method.
const (
	CodeUnsupportedType = "UNSUPPORTED_TYPE"
	CodeInvalidEncoding = "INVALID_ENCODING"
	CodeTooLarge        = "TOO_LARGE"
)

// InputError reports a document that was rejected before any extraction
// was attempted.
type InputError struct {
	Code    string
	Message string
	Err     error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *InputError) Unwrap() error { return e.Err }

func newInputError(code, message string, err error) *InputError {
	return &InputError{Code: code, Message: message, Err: err}
}
