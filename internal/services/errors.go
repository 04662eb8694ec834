package services

import "errors"

// Sentinel errors shared across services. Handlers translate these to HTTP
// statuses; not-found conditions are reported as mongo.ErrNoDocuments.
var (
	// ErrEmailExists is returned when a registration reuses an existing email.
	ErrEmailExists = errors.New("email already registered")

	// ErrInvalidCredentials is returned on login with an unknown email or a
	// password that does not match the stored hash.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrForbidden is returned when a caller operates on a resource they do
	// not own.
	ErrForbidden = errors.New("not authorized")

	// ErrAlreadyFavorited is returned when adding a favorite that already exists.
	ErrAlreadyFavorited = errors.New("already in favorites")

	// ErrFavoriteNotFound is returned when removing a favorite that does not exist.
	ErrFavoriteNotFound = errors.New("favorite not found")

	// ErrGeocodingUnavailable is returned when the upstream geocoder fails or
	// times out. The upstream detail is logged, never surfaced.
	ErrGeocodingUnavailable = errors.New("geocoding service unavailable")
)
