package commands

import "errors"

// Command table errors.
var (
	// ErrUnknownAction indicates an action with no binding.
	ErrUnknownAction = errors.New("unknown action")

	// ErrInvalidChord indicates a key chord that does not parse.
	ErrInvalidChord = errors.New("invalid key chord")

	// ErrDuplicateChord indicates two actions bound to the same chord on
	// one platform.
	ErrDuplicateChord = errors.New("duplicate key chord")

	// ErrUnknownPlatform indicates a platform name that is not recognized.
	ErrUnknownPlatform = errors.New("unknown platform")
)
