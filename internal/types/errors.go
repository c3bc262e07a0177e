package types

import "errors"

// Domain specific errors shared by the assistant services.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrBadRequest      = errors.New("bad request")
	ErrPersistenceRead = errors.New("stored preference could not be read")

	ErrPermissionDenied    = errors.New("location permission denied")
	ErrLocationUnavailable = errors.New("location unavailable")

	ErrSearchFailed      = errors.New("place search failed")
	ErrDetailFetchFailed = errors.New("place detail fetch failed")

	ErrAdviceUnavailable   = errors.New("travel advice unavailable")
	ErrInvalidAdviceFormat = errors.New("invalid response format from AI")
)
