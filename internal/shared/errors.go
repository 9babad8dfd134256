package shared

import "errors"

var (
	// ErrValidation indicates malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials indicates login failure. Unknown email and wrong
	// password both map here.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates a bearer token that failed verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUnauthenticated indicates a request without a usable identity.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUnknownUser indicates a valid token whose account no longer exists.
	ErrUnknownUser = errors.New("unknown user")
	// ErrForbidden indicates the identity lacks the required permission.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict indicates a uniqueness violation.
	ErrConflict = errors.New("conflict")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
)

// Error pairs a sentinel kind with the message shown to API clients.
type Error struct {
	Kind    error
	Message string
}

// NewError builds an Error of the given kind.
func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

// PublicMessage returns the client-facing message carried by err, if any.
func PublicMessage(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message, true
	}
	return "", false
}
