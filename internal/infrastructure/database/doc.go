// Package database provides SQLite database connectivity for Brewlink.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Connection pooling and lifecycle management
//
// The database holds schedule backups taken before power choreography
// rewrites the machine's weekly schedule, plus a journal of power
// transitions. Schema ownership lives with the stores that use the
// connection (see internal/backup).
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Performance Characteristics:
//   - WAL mode allows concurrent reads during writes
//   - Busy timeout prevents lock contention errors
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
package database
