package keshflip

import "github.com/google/uuid"

// NewIdempotencyKey returns a unique key such as "deposit_1b4e28ba-2fa1-11d2-883f-0016d3cca427".
// Reusing a key makes the API return the original result instead of creating
// a duplicate.
func NewIdempotencyKey(prefix string) string {
	if prefix == "" {
		return uuid.NewString()
	}
	return prefix + "_" + uuid.NewString()
}
