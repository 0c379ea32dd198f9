package common

import "errors"

var (

	// repository specific errors
	ErrorNotFound = errors.New("not found")

	// validation errors (bad filename, malformed credentials, duplicate username)
	ErrorInvalidInput = errors.New("invalid input")

	// media issuer: storage credentials are missing
	ErrorNotConfigured = errors.New("storage not configured")

	// auth-specific errors
	ErrorInvalidCredentials = errors.New("invalid credentials")
	ErrorInvalidToken       = errors.New("invalid token")
	ErrorUnauthorized       = errors.New("unauthorized")
	ErrorForbidden          = errors.New("forbidden")

	ErrorInternal = errors.New("internal error")
)
