package domain

import "time"

// User is a storefront account. PasswordHash is a bcrypt hash and is never serialized.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	IsStaff      bool
	IsSuperuser  bool
	DateJoined   time.Time
}
