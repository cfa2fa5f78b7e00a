// Package repository defines error values shared across the individual
// repositories. These sentinels let higher layers such as the session
// machine and the HTTP handlers distinguish failure scenarios without
// inspecting driver-specific errors.
package repository

import "errors"

// ErrHandleExists is returned by UserRepo.Create when the requested
// handle is already registered.
var ErrHandleExists = errors.New("handle already exists")

// ErrInvalidCredentials is returned by UserRepo.Authenticate for an
// unknown handle or a wrong password. The two cases are deliberately
// indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUserNotFound is returned when a user id does not resolve to a row.
var ErrUserNotFound = errors.New("user not found")

// ErrEntryNotFound is returned when an entry id does not resolve to a
// row. Handlers should translate this into an HTTP 404 response.
var ErrEntryNotFound = errors.New("entry not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers should translate this into an
// HTTP 403 response.
var ErrForbidden = errors.New("forbidden")
