package shared

import (
	"errors"
	"fmt"

	"github.com/tourdesk/tourdesk/internal/platform/httpx"
)

var (
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", httpx.ErrUnauthorized)
	// ErrNoActor indicates the request context carries no authenticated actor.
	ErrNoActor = fmt.Errorf("no authenticated actor: %w", httpx.ErrUnauthorized)
	// ErrIdempotencyConflict indicates a duplicate idempotency key.
	ErrIdempotencyConflict = fmt.Errorf("idempotent request already processed: %w", httpx.ErrDuplicate)
	errNotInitialised      = errors.New("shared: component not initialised")
)
