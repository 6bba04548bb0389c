// internal/models/errors.go
package models

import "fmt"

// ErrorCode classifies a ProtoError.
type ErrorCode string

const (
	CodePerm            ErrorCode = "EPERM"
	CodeNotConnected    ErrorCode = "ECONN"
	CodeInvalidCommand  ErrorCode = "ECOMM"
	CodeInvalidVersion  ErrorCode = "EVER"
	CodeVersionMismatch ErrorCode = "EVERMISMATCH"
	CodeInvalidMagic    ErrorCode = "EMAGIC"
	CodeBusy            ErrorCode = "EBUSY"
	CodeInvalid         ErrorCode = "EINVAL" // request understood but not applicable
)

// ProtoError is an error reported back to a client in a failed reply. Its
// message is what clients see in the reply's error field.
type ProtoError struct {
	Code ErrorCode
	Msg  string
}

func (e *ProtoError) Error() string {
	return e.Msg
}

// Errors of the fixed taxonomy. Compare with errors.Is.
var (
	ErrPerm            = &ProtoError{Code: CodePerm, Msg: "not enough privilege"}
	ErrNotConnected    = &ProtoError{Code: CodeNotConnected, Msg: "not connected"}
	ErrInvalidCommand  = &ProtoError{Code: CodeInvalidCommand, Msg: "invalid command"}
	ErrInvalidVersion  = &ProtoError{Code: CodeInvalidVersion, Msg: "invalid protocol version"}
	ErrVersionMismatch = &ProtoError{Code: CodeVersionMismatch, Msg: "protocol version mismatching with that in use"}
	ErrInvalidMagic    = &ProtoError{Code: CodeInvalidMagic, Msg: "invalid protocol magic"}
	ErrBusy            = &ProtoError{Code: CodeBusy, Msg: "busy"}
)

// Invalid builds a descriptive EINVAL error.
func Invalid(format string, args ...any) *ProtoError {
	return &ProtoError{Code: CodeInvalid, Msg: fmt.Sprintf(format, args...)}
}
