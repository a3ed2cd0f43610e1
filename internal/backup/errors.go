package backup

import "errors"

// Sentinel errors for backup store operations.
var (
	// ErrNoBackups indicates no schedule backup has been taken yet.
	ErrNoBackups = errors.New("backup: no schedule backups recorded")
)
