package errortypes

// Defines numeric codes for well-known errors.
const (
	UnknownErrorCode  = 999
	BadInputErrorCode = iota
	BadServerResponseErrorCode
)

// BadInput should be used when returning errors which are caused by bad input.
// It should _not_ be used if the error is a server-side issue (e.g. failed to send the external request).
type BadInput struct {
	Message string
}

func (err *BadInput) Error() string {
	return err.Message
}

func (err *BadInput) Code() int {
	return BadInputErrorCode
}

// BadServerResponse should be used when returning errors which are caused by
// bad/unexpected behavior on the remote server.
type BadServerResponse struct {
	Message string
}

func (err *BadServerResponse) Error() string {
	return err.Message
}

func (err *BadServerResponse) Code() int {
	return BadServerResponseErrorCode
}

// Coder provides an error code.
type Coder interface {
	Code() int
}

// ReadCode returns the error code, or UnknownErrorCode if unavailable.
func ReadCode(err error) int {
	if e, ok := err.(Coder); ok {
		return e.Code()
	}
	return UnknownErrorCode
}
