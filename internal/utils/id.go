package utils

import "github.com/google/uuid"

// NewID returns a random UUIDv4 string used as an opaque record or session identifier.
func NewID() string {
	return uuid.NewString()
}
