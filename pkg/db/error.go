package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Substrings the supported drivers emit on unique-constraint violations:
// postgres error 23505, mysql error 1062, sqlite error 2067.
var duplicateKeyMarkers = []string{
	"duplicate key value violates unique constraint",
	"Error 1062",
	"UNIQUE constraint failed",
}

// IsDuplicateKeyErr reports whether err is a unique-constraint violation.
// The write paths lean on it to turn blind inserts into version conflicts.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	for _, marker := range duplicateKeyMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
