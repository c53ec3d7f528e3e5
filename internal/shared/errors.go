package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Collection and API errors
	ErrAPIRequest       = fmt.Errorf("API request failed")
	ErrFetchFailed      = fmt.Errorf("collection fetch failed")
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")

	// Projection and export errors
	ErrUnknownField  = fmt.Errorf("unknown field")
	ErrUnknownFormat = fmt.Errorf("unknown output format")
	ErrExportIO      = fmt.Errorf("export failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
