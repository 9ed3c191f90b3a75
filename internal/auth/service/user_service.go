package service

import (
	"context"
	"strings"
	"time"

	"github.com/Sundram11/backend01/config"
	"github.com/Sundram11/backend01/internal/auth/domain"
	"github.com/Sundram11/backend01/internal/auth/dto"
	autherror "github.com/Sundram11/backend01/internal/errors"
	"github.com/Sundram11/backend01/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserService is the session manager: it orchestrates registration, login,
// logout, refresh rotation, and the account mutations that touch credentials.
// The only cross-request coordination point is the user's stored refresh
// token, guarded by the repository's compare-and-set.
type UserService struct {
	repo         domain.UserRepository
	tokenService TokenGenerator
	uploader     domain.MediaUploader
	cfg          *config.Config
	log          logging.Logger
}

func NewUserService(repo domain.UserRepository, tokenService TokenGenerator,
	uploader domain.MediaUploader, cfg *config.Config, log logging.Logger) *UserService {
	return &UserService{
		repo:         repo,
		tokenService: tokenService,
		uploader:     uploader,
		cfg:          cfg,
		log:          log.With("module", "user_service"),
	}
}

func (s *UserService) Register(ctx context.Context, input dto.RegisterInput) (*dto.UserOutput, error) {
	fullName := strings.TrimSpace(input.FullName)
	email := strings.TrimSpace(input.Email)
	username := strings.ToLower(strings.TrimSpace(input.Username))
	password := strings.TrimSpace(input.Password)

	if fullName == "" || email == "" || username == "" || password == "" {
		return nil, autherror.ErrAllFieldsRequired
	}

	existing, err := s.repo.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, autherror.ErrUserAlreadyExists
	}

	if input.Avatar == nil {
		return nil, autherror.ErrAvatarFileRequired
	}

	avatarURL, err := s.upload(ctx, input.Avatar)
	if err != nil || avatarURL == "" {
		return nil, autherror.ErrAvatarUploadFailed
	}

	// The cover image is optional at registration; a failed upload degrades
	// to an empty URL instead of failing the whole registration.
	var coverImageURL string
	if input.CoverImage != nil {
		coverImageURL, err = s.upload(ctx, input.CoverImage)
		if err != nil {
			s.log.Warn(ctx, "cover image upload failed during registration", "error", err)
			coverImageURL = ""
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, autherror.ErrUserCreationFailed
	}

	now := time.Now()

	user := &domain.User{
		ID:            uuid.New().String(),
		Username:      username,
		Email:         email,
		FullName:      fullName,
		AvatarURL:     avatarURL,
		CoverImageURL: coverImageURL,
		PasswordHash:  string(hashedPassword),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	created, err := s.repo.GetByID(ctx, user.ID)
	if err != nil || created == nil {
		return nil, autherror.ErrUserCreationFailed
	}

	return dto.NewUserOutput(created), nil
}

func (s *UserService) Login(ctx context.Context, input dto.LoginInput) (*dto.LoginOutput, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	email := strings.TrimSpace(input.Email)

	if username == "" && email == "" {
		return nil, autherror.ErrIdentifierRequired
	}

	user, err := s.repo.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrUserNotFound
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		return nil, autherror.ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.generateTokenPair(user.ID)
	if err != nil {
		return nil, err
	}

	// Rotation point: any previously issued refresh token for this account is
	// invalidated by the overwrite, even if another client still holds it.
	if err := s.repo.SetRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return nil, err
	}

	return &dto.LoginOutput{
		User:         *dto.NewUserOutput(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Logout clears the stored refresh token. Logging out twice is not an error.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	return s.repo.SetRefreshToken(ctx, userID, "")
}

// Refresh validates the presented refresh token and rotates it. The presented
// value must exactly equal the stored one; the compare-and-set makes the
// read-compare-write atomic, so concurrent refreshes with the same stale
// token produce at most one winner.
func (s *UserService) Refresh(ctx context.Context, presented string) (*dto.TokenResponse, error) {
	if presented == "" {
		return nil, autherror.ErrMissingRefreshToken
	}

	// Verification failures (expired, malformed, wrong signature) collapse
	// into one uniform error so callers cannot probe token validity.
	claims, err := s.tokenService.VerifyRefreshToken(presented)
	if err != nil {
		return nil, autherror.ErrInvalidRefreshToken
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrInvalidRefreshToken
	}

	accessToken, refreshToken, err := s.generateTokenPair(user.ID)
	if err != nil {
		return nil, err
	}

	swapped, err := s.repo.CompareAndSetRefreshToken(ctx, user.ID, presented, refreshToken)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, autherror.ErrRefreshTokenUsed
	}

	return &dto.TokenResponse{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// ChangePassword re-hashes and stores the new password, then clears the
// stored refresh token so a stolen session does not survive a password reset.
// Outstanding access tokens stay valid until their short expiry.
func (s *UserService) ChangePassword(ctx context.Context, userID string, input dto.ChangePasswordInput) error {
	newPassword := strings.TrimSpace(input.NewPassword)
	if newPassword == "" {
		return autherror.ErrAllFieldsRequired
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return autherror.ErrUserNotFound
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.OldPassword)) != nil {
		return autherror.ErrInvalidOldPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cfg.BcryptCost)
	if err != nil {
		return autherror.Internal("something went wrong while changing the password")
	}

	hash := string(hashedPassword)
	if _, err := s.repo.UpdateFields(ctx, userID, domain.UserUpdate{PasswordHash: &hash}); err != nil {
		return err
	}

	return s.repo.SetRefreshToken(ctx, userID, "")
}

// GetUserByID returns the sanitized record for an existing user.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (*dto.UserOutput, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrUserNotFound
	}
	return dto.NewUserOutput(user), nil
}

func (s *UserService) UpdateAccount(ctx context.Context, userID string, input dto.UpdateAccountInput) (*dto.UserOutput, error) {
	fullName := strings.TrimSpace(input.FullName)
	email := strings.TrimSpace(input.Email)

	if fullName == "" || email == "" {
		return nil, autherror.ErrAllFieldsRequired
	}

	updated, err := s.repo.UpdateFields(ctx, userID, domain.UserUpdate{
		FullName: &fullName,
		Email:    &email,
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, autherror.ErrUserNotFound
	}

	return dto.NewUserOutput(updated), nil
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID string, file *dto.FileInput) (*dto.UserOutput, error) {
	if file == nil {
		return nil, autherror.ErrAvatarFileRequired
	}

	url, err := s.upload(ctx, file)
	if err != nil || url == "" {
		return nil, autherror.ErrAvatarUploadFailed
	}

	updated, err := s.repo.UpdateFields(ctx, userID, domain.UserUpdate{AvatarURL: &url})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, autherror.ErrUserNotFound
	}

	return dto.NewUserOutput(updated), nil
}

func (s *UserService) UpdateCoverImage(ctx context.Context, userID string, file *dto.FileInput) (*dto.UserOutput, error) {
	if file == nil {
		return nil, autherror.ErrCoverFileRequired
	}

	url, err := s.upload(ctx, file)
	if err != nil || url == "" {
		return nil, autherror.ErrCoverUploadFailed
	}

	updated, err := s.repo.UpdateFields(ctx, userID, domain.UserUpdate{CoverImageURL: &url})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, autherror.ErrUserNotFound
	}

	return dto.NewUserOutput(updated), nil
}

// upload pushes a local file to the media store under a bounded timeout, so a
// stalled upload surfaces as an error instead of a hang.
func (s *UserService) upload(ctx context.Context, file *dto.FileInput) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.UploadTimeout())
	defer cancel()

	return s.uploader.Upload(ctx, file.Path)
}

func (s *UserService) generateTokenPair(userID string) (string, string, error) {
	accessToken, err := s.tokenService.GenerateAccessToken(userID)
	if err != nil {
		return "", "", autherror.ErrTokenGeneration
	}

	refreshToken, err := s.tokenService.GenerateRefreshToken(userID)
	if err != nil {
		return "", "", autherror.ErrTokenGeneration
	}

	return accessToken, refreshToken, nil
}
