package launch

import "errors"

var (
	// ErrUnauthorized means the caller is not allowed to perform the operation.
	ErrUnauthorized = errors.New("caller is not authorized")

	// ErrUnknownToken means the token was not created through this controller.
	ErrUnknownToken = errors.New("unknown launch token")

	// ErrAlreadyMigrated means the token's liquidity has moved to the venue.
	ErrAlreadyMigrated = errors.New("token already migrated")

	// ErrNotMigrated means the operation needs a migrated token.
	ErrNotMigrated = errors.New("token not migrated yet")

	// ErrPoolAlreadyCreated means the launch already has its trading pool.
	ErrPoolAlreadyCreated = errors.New("launch pool already created")
)
