package service

import (
	"errors"
)

// Sentinel errors for the failure taxonomy the API layer maps to status
// codes. Callers inspect them with errors.Is; wrapping with %w preserves
// the sentinel.
var (
	// ErrInvalidArgument is returned when a request fails domain validation
	// before any state is touched
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInsufficientFunds is returned when a debit would drive a user's
	// coin balance negative. The debit is never partially applied.
	ErrInsufficientFunds = errors.New("insufficient coins")

	// ErrUserNotFound is returned when the referenced user does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned on registration when the identity is taken
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidCredentials is returned on a failed login
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrStakeNotFound is returned when the referenced stake does not exist
	ErrStakeNotFound = errors.New("stake not found")

	// ErrStakeNotPending is returned when a terminal transition is attempted
	// on a stake that already left PENDING. The caller must not retry the
	// same transition; the economic effects were applied exactly once.
	ErrStakeNotPending = errors.New("stake is not pending")

	// ErrGitHubAuthRequired is returned when an operation needs a source-hosting
	// access token the user has not granted
	ErrGitHubAuthRequired = errors.New("github authorization required")

	// ErrUpstreamUnavailable is returned when an external service call failed
	// as a whole and no partial result is possible
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
)
