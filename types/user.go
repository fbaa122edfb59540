package types

import "time"

// User represents a registered person whose exercises are tracked.
// Users are created once and never updated or deleted.
type User struct {
	// ID is the opaque identifier assigned by the store on creation.
	ID string `json:"id" db:"id"`

	// Username is the unique, non-empty name chosen at registration.
	Username string `json:"username" db:"username"`

	// CreatedAt records insertion order. It is not exposed in API responses.
	CreatedAt time.Time `json:"-" db:"created_at"`
}
