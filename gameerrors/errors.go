package gameerrors

import "errors"

// Session sentinel errors. Shared by game, scan, ws and api so none of them
// has to import another just to classify a failure.
var (
	ErrInvalidNumber     = errors.New("invalid number")
	ErrInvalidDimensions = errors.New("invalid grid dimensions")
	ErrConfigLocked      = errors.New("grid size cannot change while cards exist")
	ErrMalformedGrid     = errors.New("malformed grid")
	ErrInvalidTitle      = errors.New("invalid card title")
	ErrInvalidCell       = errors.New("invalid cell")
	ErrScanFailed        = errors.New("scan failed")
	ErrNoScanInFlight    = errors.New("no scan in flight")
	ErrSessionClosed     = errors.New("session closed")
)

// UserError is a failure whose Message is safe to show to the user as is,
// e.g. the scan service deciding the photo is not a Bingo card.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError returns a UserError with the given message.
func NewUserError(message string) *UserError {
	return &UserError{Message: message}
}

// UserMessage returns the user-facing message carried by err, if any.
func UserMessage(err error) (string, bool) {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Message, true
	}
	return "", false
}
