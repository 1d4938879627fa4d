package repository

import "github.com/flowforge/jobshop/pkg/domain"

// NotFound wraps a repository miss into the core's EntityNotFound kind.
// Repository implementations report NotFound/StorageError as distinct
// kinds (spec §6); the core never interprets the underlying store's
// error strings.
func NotFound(kind, id string) error {
	return domain.NewEntityNotFound(kind, id)
}

// StorageFailure wraps an underlying backend error into the core's
// StorageError kind.
func StorageFailure(cause error) error {
	return domain.NewStorageError(cause)
}
