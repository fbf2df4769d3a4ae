package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Deck invariants.
	ErrNoColumns = errors.New("at least one column is required")

	// Backup storage is optional.
	ErrBackupDisabled = errors.New("backup storage is not configured")
)
