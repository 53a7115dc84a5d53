package usecase

import "errors"

// Outcomes surfaced to callers. Handlers map them to status codes with
// errors.Is; anything else is reported as an internal error.
var (
	ErrInvalidInput          = errors.New("validation failed")
	ErrDuplicateIdentity     = errors.New("email already registered")
	ErrUserNotFound          = errors.New("user not found")
	ErrIncorrectPassword     = errors.New("incorrect password")
	ErrNoFaceDetected        = errors.New("no face detected in image")
	ErrUnsupportedImage      = errors.New("image must be a JPEG within the size limit")
	ErrNoMatch               = errors.New("face not recognized")
	ErrFaceDisabled          = errors.New("face recognition is disabled")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrForbidden             = errors.New("forbidden")
	ErrUpstream              = errors.New("upstream failure")
)
