package authstate

import "errors"

// Kind tags every failure the auth core can surface. The set is closed:
// operations map backend failures onto exactly one kind at the point the
// failure is caught.
type Kind string

const (
	KindSignIn              Kind = "sign_in"
	KindSignUp              Kind = "sign_up"
	KindSignOut             Kind = "sign_out"
	KindProfileFetch        Kind = "profile_fetch"
	KindProfileUpdate       Kind = "profile_update"
	KindUsernameExhausted   Kind = "username_exhausted"
	KindNoAuthenticatedUser Kind = "no_authenticated_user"
)

// Error is a transient auth failure. It is stored in the machine's state for
// global display (e.g. a dismissible banner) and returned to the caller for
// inline feedback; the dual surfacing is intentional.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is (or wraps) an auth Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var authErr *Error
	return errors.As(err, &authErr) && authErr.Kind == kind
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}
