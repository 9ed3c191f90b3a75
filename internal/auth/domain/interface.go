package domain

import "context"

//go:generate mockgen -destination=../../mocks/mock_user_repository.go -package=mocks github.com/Sundram11/backend01/internal/auth/domain UserRepository
//go:generate mockgen -destination=../../mocks/mock_media_uploader.go -package=mocks github.com/Sundram11/backend01/internal/auth/domain MediaUploader

// UserRepository is the credential store contract. Lookups return (nil, nil)
// when no record matches.
type UserRepository interface {
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user *User) error

	// UpdateFields applies a partial update and returns the updated record.
	UpdateFields(ctx context.Context, id string, update UserUpdate) (*User, error)

	// SetRefreshToken unconditionally overwrites the stored refresh token.
	// Login rotates through it; logout clears it with an empty string.
	SetRefreshToken(ctx context.Context, id, token string) error

	// CompareAndSetRefreshToken atomically replaces the stored refresh token
	// only if it still equals expected. It reports whether the swap happened;
	// false means the token was already rotated or cleared.
	CompareAndSetRefreshToken(ctx context.Context, id, expected, next string) (bool, error)
}

// MediaUploader pushes a local file to durable storage and returns its public
// URL. An error (or an empty URL) means the upload failed; "no file provided"
// is the caller's concern and never reaches the uploader.
type MediaUploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}
