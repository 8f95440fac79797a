package studio

import "errors"

var (
	// ErrUnauthenticated is returned for operations without a signed-in user.
	ErrUnauthenticated = errors.New("not signed in")

	// ErrGenerationInProgress rejects a second generation for the same record
	// or text while the first is still waiting on the provider.
	ErrGenerationInProgress = errors.New("generation already in progress")

	ErrStorageDisabled  = errors.New("cover storage is not configured")
	ErrUnsupportedImage = errors.New("unsupported image type")
)
