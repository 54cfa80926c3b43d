package domain

import "errors"

// Rejection taxonomy for room actions. Handlers wrap these with context via
// fmt.Errorf("%w: ...") and report them to the originating player only.
var (
	ErrValidation   = errors.New("validation-error")
	ErrPermission   = errors.New("permission-error")
	ErrInvalidState = errors.New("invalid-state")
	ErrNotFound     = errors.New("not-found")
)

var (
	ErrRoomNotFound  = errors.New("room-not-found")
	ErrRoomFull      = errors.New("room-full")
	ErrNicknameTaken = errors.New("nickname-taken")
)

// Session token errors.
var (
	ErrExpiredToken                  = errors.New("expired-token")
	ErrInvalidTokenSignature         = errors.New("invalid-token-signature")
	ErrInvalidSigningAlg             = errors.New("invalid-signing-algorithm")
	ErrCorruptedToken                = errors.New("corrupted-token")
	UnexpectedTokenGenerationError   = errors.New("unexpected-token-generation-error")
	UnexpectedTokenVerificationError = errors.New("unexpected-token-verification-error")
)
