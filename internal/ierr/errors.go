package ierr

import "errors"

// Failure categories recognized by the error translation middleware. Services
// wrap these with fmt.Errorf("%w: ...") so errors.Is keeps working across
// layers; the middleware matches the most specific category first and falls
// back to the generic one.
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("resource conflict")
	ErrInternalServer   = errors.New("internal server error")
)

// Auth failures. All of these belong to the unauthorized category.
var (
	ErrInvalidCredentials = Wrap(ErrUnauthorized, "invalid username or password")
	ErrInvalidToken       = Wrap(ErrUnauthorized, "invalid or expired token")
	ErrTokenInvalidClaims = Wrap(ErrUnauthorized, "token contains invalid claims")
	ErrWrongPassword      = Wrap(ErrUnauthorized, "current password does not match")
)

// Domain failures built on the category sentinels above.
var (
	ErrBookNotFound  = Wrap(ErrNotFound, "book not found")
	ErrUserNotFound  = Wrap(ErrNotFound, "user not found")
	ErrGenreNotFound = Wrap(ErrNotFound, "genre not found")

	ErrDuplicateISBN  = Wrap(ErrConflict, "a book with this isbn already exists")
	ErrDuplicateGenre = Wrap(ErrConflict, "a genre with this name already exists")
	ErrUsernameTaken  = Wrap(ErrConflict, "username is already taken")
	ErrEmailTaken     = Wrap(ErrConflict, "email is already registered")
)

type wrapped struct {
	cause error
	msg   string
}

func (w *wrapped) Error() string { return w.msg }

func (w *wrapped) Unwrap() error { return w.cause }

// Wrap returns an error with its own message that still matches cause
// under errors.Is.
func Wrap(cause error, msg string) error {
	return &wrapped{cause: cause, msg: msg}
}
