// Package errors provides the sentinel errors of the auth service.
package errors

import "errors"

var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("user already exists")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

var ErrCreateUser = errors.New("failed to create user")
var ErrFindUser = errors.New("failed to find user")

var ErrStoreUnavailable = errors.New("user store is unavailable")

var ErrHashPassword = errors.New("failed to hash password")
var ErrIssueToken = errors.New("failed to issue token")
