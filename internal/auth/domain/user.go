package domain

import "time"

// User is the single persisted record per account. PasswordHash and
// RefreshToken are credentials and must never leave the service layer;
// callers receive dto.UserOutput instead.
type User struct {
	ID            string
	Username      string
	Email         string
	FullName      string
	AvatarURL     string
	CoverImageURL string
	PasswordHash  string
	// RefreshToken is the single source of truth for the account's session:
	// empty means no active session, otherwise it must exactly equal the most
	// recently issued refresh token.
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserUpdate is a typed partial update. Nil fields are left untouched.
type UserUpdate struct {
	FullName      *string
	Email         *string
	AvatarURL     *string
	CoverImageURL *string
	PasswordHash  *string
}
