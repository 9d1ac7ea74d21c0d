package utils

import "github.com/google/uuid"

// IsUUID reports whether s parses as a UUID. Ids that do not are treated as
// unknown before any store is asked.
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
