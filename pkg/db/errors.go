package db

import "strings"

// IsUniqueViolation reports whether the provided error references a uniqueness
// or index constraint failure. Covers sqlite ("UNIQUE constraint failed") and
// Postgres ("duplicate key value"). When constraintName is provided, the helper
// looks for the constraint text in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
