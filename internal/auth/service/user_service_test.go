package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Sundram11/backend01/config"
	"github.com/Sundram11/backend01/internal/auth/domain"
	"github.com/Sundram11/backend01/internal/auth/dto"
	"github.com/Sundram11/backend01/internal/auth/service"
	autherror "github.com/Sundram11/backend01/internal/errors"
	"github.com/Sundram11/backend01/internal/logging"
	"github.com/Sundram11/backend01/internal/mocks"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testConfig() *config.Config {
	return &config.Config{BcryptCost: bcrypt.MinCost, UploadTimeoutSec: 5}
}

func newService(t *testing.T) (*service.UserService, *mocks.MockUserRepository, *mocks.MockTokenGenerator, *mocks.MockMediaUploader) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockRepo := mocks.NewMockUserRepository(ctrl)
	mockTokens := mocks.NewMockTokenGenerator(ctrl)
	mockUploader := mocks.NewMockMediaUploader(ctrl)

	s := service.NewUserService(mockRepo, mockTokens, mockUploader, testConfig(), testLogger())

	return s, mockRepo, mockTokens, mockUploader
}

func hashPassword(t *testing.T, plaintext string) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.MinCost)
	require.NoError(t, err)

	return string(hash)
}

func validRegisterInput() dto.RegisterInput {
	return dto.RegisterInput{
		FullName: "Alice Example",
		Email:    "a@x.com",
		Username: "Alice",
		Password: "p1",
		Avatar:   &dto.FileInput{Path: "/tmp/avatar.png"},
	}
}

func TestUserService_Register_Success(t *testing.T) {
	s, mockRepo, _, mockUploader := newService(t)
	ctx := context.Background()
	input := validRegisterInput()

	var createdID string

	mockRepo.EXPECT().GetByUsernameOrEmail(gomock.Any(), "alice", input.Email).Return(nil, nil)
	mockUploader.EXPECT().Upload(gomock.Any(), input.Avatar.Path).Return("https://media/avatar.png", nil)
	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, u *domain.User) error {
			createdID = u.ID
			assert.Equal(t, "alice", u.Username)
			assert.Equal(t, "https://media/avatar.png", u.AvatarURL)
			assert.NotEmpty(t, u.PasswordHash)
			assert.NotEqual(t, input.Password, u.PasswordHash)
			assert.Empty(t, u.RefreshToken)
			return nil
		})
	mockRepo.EXPECT().GetByID(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, id string) (*domain.User, error) {
			require.Equal(t, createdID, id)
			return &domain.User{
				ID:        id,
				Username:  "alice",
				Email:     input.Email,
				FullName:  input.FullName,
				AvatarURL: "https://media/avatar.png",
			}, nil
		})

	user, err := s.Register(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, input.Email, user.Email)
	assert.NotEmpty(t, user.ID)
}

func TestUserService_Register_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*dto.RegisterInput)
	}{
		{"empty full name", func(in *dto.RegisterInput) { in.FullName = "  " }},
		{"empty email", func(in *dto.RegisterInput) { in.Email = "" }},
		{"empty username", func(in *dto.RegisterInput) { in.Username = "" }},
		{"empty password", func(in *dto.RegisterInput) { in.Password = "\t" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _, _ := newService(t)
			input := validRegisterInput()
			tt.mutate(&input)

			user, err := s.Register(context.Background(), input)

			assert.ErrorIs(t, err, autherror.ErrAllFieldsRequired)
			assert.Nil(t, user)
		})
	}
}

func TestUserService_Register_Conflict(t *testing.T) {
	s, mockRepo, _, _ := newService(t)
	input := validRegisterInput()

	existing := &domain.User{ID: "existing-id", Username: "alice"}
	mockRepo.EXPECT().GetByUsernameOrEmail(gomock.Any(), "alice", input.Email).Return(existing, nil)

	user, err := s.Register(context.Background(), input)

	assert.ErrorIs(t, err, autherror.ErrUserAlreadyExists)
	assert.Nil(t, user)
}

func TestUserService_Register_AvatarMissing(t *testing.T) {
	s, mockRepo, _, _ := newService(t)
	input := validRegisterInput()
	input.Avatar = nil

	mockRepo.EXPECT().GetByUsernameOrEmail(gomock.Any(), "alice", input.Email).Return(nil, nil)

	user, err := s.Register(context.Background(), input)

	assert.ErrorIs(t, err, autherror.ErrAvatarFileRequired)
	assert.Nil(t, user)
}

func TestUserService_Register_AvatarUploadFails(t *testing.T) {
	tests := []struct {
		name string
		url  string
		err  error
	}{
		{"uploader error", "", errors.New("connection refused")},
		{"no url returned", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mockRepo, _, mockUploader := newService(t)
			input := validRegisterInput()

			mockRepo.EXPECT().GetByUsernameOrEmail(gomock.Any(), "alice", input.Email).Return(nil, nil)
			mockUploader.EXPECT().Upload(gomock.Any(), input.Avatar.Path).Return(tt.url, tt.err)

			user, err := s.Register(context.Background(), input)

			assert.ErrorIs(t, err, autherror.ErrAvatarUploadFailed)
			assert.Nil(t, user)
		})
	}
}

func TestUserService_Register_CoverUploadFailureTolerated(t *testing.T) {
	s, mockRepo, _, mockUploader := newService(t)
	input := validRegisterInput()
	input.CoverImage = &dto.FileInput{Path: "/tmp/cover.png"}

	mockRepo.EXPECT().GetByUsernameOrEmail(gomock.Any(), "alice", input.Email).Return(nil, nil)
	mockUploader.EXPECT().Upload(gomock.Any(), input.Avatar.Path).Return("https://media/avatar.png", nil)
	mockUploader.EXPECT().Upload(gomock.Any(), input.CoverImage.Path).Return("", errors.New("timeout"))
	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, u *domain.User) error {
			assert.Empty(t, u.CoverImageURL)
			return nil
		})
	mockRepo.EXPECT().GetByID(gomock.Any(), gomock.Any()).Return(&domain.User{ID: "u1", Username: "alice"}, nil)

	user, err := s.Register(context.Background(), input)

	require.NoError(t, err)
	assert.Empty(t, user.CoverImageURL)
}

func TestUserService_Register_RereadFails(t *testing.T) {
	s, mockRepo, _, mockUploader := newService(t)
	input := validRegisterInput()

	mockRepo.EXPECT().GetByUsernameOrEmail(gomock.Any(), "alice", input.Email).Return(nil, nil)
	mockUploader.EXPECT().Upload(gomock.Any(), input.Avatar.Path).Return("https://media/avatar.png", nil)
	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	mockRepo.EXPECT().GetByID(gomock.Any(), gomock.Any()).Return(nil, nil)

	user, err := s.Register(context.Background(), input)

	assert.ErrorIs(t, err, autherror.ErrUserCreationFailed)
	assert.Nil(t, user)
}

func TestUserService_Login_MissingIdentifier(t *testing.T) {
	s, _, _, _ := newService(t)

	out, err := s.Login(context.Background(), dto.LoginInput{Password: "p1"})

	assert.ErrorIs(t, err, autherror.ErrIdentifierRequired)
	assert.Nil(t, out)
}

func TestUserService_Login_UserNotFound(t *testing.T) {
	s, mockRepo, _, _ := newService(t)

	mockRepo.EXPECT().GetByUsernameOrEmail(gomock.Any(), "ghost", "").Return(nil, nil)

	out, err := s.Login(context.Background(), dto.LoginInput{Username: "ghost", Password: "p1"})

	assert.ErrorIs(t, err, autherror.ErrUserNotFound)
	assert.Nil(t, out)
}

func TestUserService_Login_WrongPassword(t *testing.T) {
	s, mockRepo, _, _ := newService(t)

	user := &domain.User{ID: "u1", Username: "alice", PasswordHash: hashPassword(t, "p1")}
	mockRepo.EXPECT().GetByUsernameOrEmail(gomock.Any(), "alice", "").Return(user, nil)

	out, err := s.Login(context.Background(), dto.LoginInput{Username: "alice", Password: "wrong"})

	assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)
	assert.Nil(t, out)
}

func TestUserService_Login_Success(t *testing.T) {
	s, mockRepo, mockTokens, _ := newService(t)

	user := &domain.User{
		ID:           "u1",
		Username:     "alice",
		Email:        "a@x.com",
		PasswordHash: hashPassword(t, "p1"),
	}

	mockRepo.EXPECT().GetByUsernameOrEmail(gomock.Any(), "alice", "").Return(user, nil)
	mockTokens.EXPECT().GenerateAccessToken("u1").Return("access-1", nil)
	mockTokens.EXPECT().GenerateRefreshToken("u1").Return("refresh-1", nil)
	mockRepo.EXPECT().SetRefreshToken(gomock.Any(), "u1", "refresh-1").Return(nil)

	out, err := s.Login(context.Background(), dto.LoginInput{Username: "Alice", Password: "p1"})

	require.NoError(t, err)
	assert.Equal(t, "access-1", out.AccessToken)
	assert.Equal(t, "refresh-1", out.RefreshToken)
	assert.NotEqual(t, out.AccessToken, out.RefreshToken)
	assert.Equal(t, "alice", out.User.Username)
}

func TestUserService_Login_ByEmail(t *testing.T) {
	s, mockRepo, mockTokens, _ := newService(t)

	user := &domain.User{ID: "u1", Email: "a@x.com", PasswordHash: hashPassword(t, "p1")}

	mockRepo.EXPECT().GetByUsernameOrEmail(gomock.Any(), "", "a@x.com").Return(user, nil)
	mockTokens.EXPECT().GenerateAccessToken("u1").Return("access-1", nil)
	mockTokens.EXPECT().GenerateRefreshToken("u1").Return("refresh-1", nil)
	mockRepo.EXPECT().SetRefreshToken(gomock.Any(), "u1", "refresh-1").Return(nil)

	out, err := s.Login(context.Background(), dto.LoginInput{Email: "a@x.com", Password: "p1"})

	require.NoError(t, err)
	assert.Equal(t, "refresh-1", out.RefreshToken)
}

func TestUserService_Logout_Idempotent(t *testing.T) {
	s, mockRepo, _, _ := newService(t)

	mockRepo.EXPECT().SetRefreshToken(gomock.Any(), "u1", "").Return(nil).Times(2)

	require.NoError(t, s.Logout(context.Background(), "u1"))
	require.NoError(t, s.Logout(context.Background(), "u1"))
}

func TestUserService_Refresh_MissingToken(t *testing.T) {
	s, _, _, _ := newService(t)

	out, err := s.Refresh(context.Background(), "")

	assert.ErrorIs(t, err, autherror.ErrMissingRefreshToken)
	assert.Nil(t, out)
}

func TestUserService_Refresh_InvalidToken(t *testing.T) {
	s, _, mockTokens, _ := newService(t)

	mockTokens.EXPECT().VerifyRefreshToken("garbage").Return(nil, errors.New("token is malformed"))

	out, err := s.Refresh(context.Background(), "garbage")

	assert.ErrorIs(t, err, autherror.ErrInvalidRefreshToken)
	assert.Nil(t, out)
}

func TestUserService_Refresh_UnknownUser(t *testing.T) {
	s, mockRepo, mockTokens, _ := newService(t)

	mockTokens.EXPECT().VerifyRefreshToken("refresh-1").Return(&service.JWTCustomClaims{UserID: "gone"}, nil)
	mockRepo.EXPECT().GetByID(gomock.Any(), "gone").Return(nil, nil)

	out, err := s.Refresh(context.Background(), "refresh-1")

	assert.ErrorIs(t, err, autherror.ErrInvalidRefreshToken)
	assert.Nil(t, out)
}

func TestUserService_Refresh_RotatesToken(t *testing.T) {
	s, mockRepo, mockTokens, _ := newService(t)

	user := &domain.User{ID: "u1", RefreshToken: "refresh-1"}

	mockTokens.EXPECT().VerifyRefreshToken("refresh-1").Return(&service.JWTCustomClaims{UserID: "u1"}, nil)
	mockRepo.EXPECT().GetByID(gomock.Any(), "u1").Return(user, nil)
	mockTokens.EXPECT().GenerateAccessToken("u1").Return("access-2", nil)
	mockTokens.EXPECT().GenerateRefreshToken("u1").Return("refresh-2", nil)
	mockRepo.EXPECT().CompareAndSetRefreshToken(gomock.Any(), "u1", "refresh-1", "refresh-2").Return(true, nil)

	out, err := s.Refresh(context.Background(), "refresh-1")

	require.NoError(t, err)
	assert.Equal(t, "access-2", out.AccessToken)
	assert.Equal(t, "refresh-2", out.RefreshToken)
	assert.NotEqual(t, "refresh-1", out.RefreshToken)
}

// A presented token that no longer matches the stored value must lose, even
// though it is cryptographically valid. This is the single-use guarantee
// across rotation boundaries.
func TestUserService_Refresh_StaleTokenLoses(t *testing.T) {
	s, mockRepo, mockTokens, _ := newService(t)

	user := &domain.User{ID: "u1", RefreshToken: "refresh-2"}

	mockTokens.EXPECT().VerifyRefreshToken("refresh-1").Return(&service.JWTCustomClaims{UserID: "u1"}, nil)
	mockRepo.EXPECT().GetByID(gomock.Any(), "u1").Return(user, nil)
	mockTokens.EXPECT().GenerateAccessToken("u1").Return("access-3", nil)
	mockTokens.EXPECT().GenerateRefreshToken("u1").Return("refresh-3", nil)
	mockRepo.EXPECT().CompareAndSetRefreshToken(gomock.Any(), "u1", "refresh-1", "refresh-3").Return(false, nil)

	out, err := s.Refresh(context.Background(), "refresh-1")

	assert.ErrorIs(t, err, autherror.ErrRefreshTokenUsed)
	assert.Nil(t, out)
}

// Two refreshes racing with the same stale token: the compare-and-set lets
// exactly one writer through. The second call observes the rotated value and
// fails, regardless of interleaving.
func TestUserService_Refresh_ConcurrentOneWinner(t *testing.T) {
	s, mockRepo, mockTokens, _ := newService(t)

	user := &domain.User{ID: "u1", RefreshToken: "refresh-1"}

	mockTokens.EXPECT().VerifyRefreshToken("refresh-1").Return(&service.JWTCustomClaims{UserID: "u1"}, nil).Times(2)
	mockRepo.EXPECT().GetByID(gomock.Any(), "u1").Return(user, nil).Times(2)
	mockTokens.EXPECT().GenerateAccessToken("u1").Return("access-2", nil).Times(2)
	mockTokens.EXPECT().GenerateRefreshToken("u1").Return("refresh-2", nil).Times(2)

	gomock.InOrder(
		mockRepo.EXPECT().CompareAndSetRefreshToken(gomock.Any(), "u1", "refresh-1", "refresh-2").Return(true, nil),
		mockRepo.EXPECT().CompareAndSetRefreshToken(gomock.Any(), "u1", "refresh-1", "refresh-2").Return(false, nil),
	)

	first, err := s.Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := s.Refresh(context.Background(), "refresh-1")
	assert.ErrorIs(t, err, autherror.ErrRefreshTokenUsed)
	assert.Nil(t, second)
}

func TestUserService_ChangePassword_WrongOldPassword(t *testing.T) {
	s, mockRepo, _, _ := newService(t)

	user := &domain.User{ID: "u1", PasswordHash: hashPassword(t, "p1")}
	mockRepo.EXPECT().GetByID(gomock.Any(), "u1").Return(user, nil)

	err := s.ChangePassword(context.Background(), "u1", dto.ChangePasswordInput{
		OldPassword: "wrong",
		NewPassword: "p2",
	})

	// No UpdateFields expectation: the stored hash must stay untouched.
	assert.ErrorIs(t, err, autherror.ErrInvalidOldPassword)
}

func TestUserService_ChangePassword_Success(t *testing.T) {
	s, mockRepo, _, _ := newService(t)

	user := &domain.User{ID: "u1", PasswordHash: hashPassword(t, "p1")}
	mockRepo.EXPECT().GetByID(gomock.Any(), "u1").Return(user, nil)
	mockRepo.EXPECT().UpdateFields(gomock.Any(), "u1", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, update domain.UserUpdate) (*domain.User, error) {
			require.NotNil(t, update.PasswordHash)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*update.PasswordHash), []byte("p2")))
			return user, nil
		})
	// Password change revokes the active session.
	mockRepo.EXPECT().SetRefreshToken(gomock.Any(), "u1", "").Return(nil)

	err := s.ChangePassword(context.Background(), "u1", dto.ChangePasswordInput{
		OldPassword: "p1",
		NewPassword: "p2",
	})

	require.NoError(t, err)
}

func TestUserService_ChangePassword_EmptyNewPassword(t *testing.T) {
	s, _, _, _ := newService(t)

	err := s.ChangePassword(context.Background(), "u1", dto.ChangePasswordInput{
		OldPassword: "p1",
		NewPassword: "  ",
	})

	assert.ErrorIs(t, err, autherror.ErrAllFieldsRequired)
}

func TestUserService_UpdateAccount(t *testing.T) {
	t.Run("missing fields", func(t *testing.T) {
		s, _, _, _ := newService(t)

		out, err := s.UpdateAccount(context.Background(), "u1", dto.UpdateAccountInput{FullName: "Alice"})

		assert.ErrorIs(t, err, autherror.ErrAllFieldsRequired)
		assert.Nil(t, out)
	})

	t.Run("success", func(t *testing.T) {
		s, mockRepo, _, _ := newService(t)

		updated := &domain.User{ID: "u1", Username: "alice", FullName: "Alice B", Email: "b@x.com"}
		mockRepo.EXPECT().UpdateFields(gomock.Any(), "u1", gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, update domain.UserUpdate) (*domain.User, error) {
				require.NotNil(t, update.FullName)
				require.NotNil(t, update.Email)
				assert.Equal(t, "Alice B", *update.FullName)
				assert.Equal(t, "b@x.com", *update.Email)
				return updated, nil
			})

		out, err := s.UpdateAccount(context.Background(), "u1", dto.UpdateAccountInput{
			FullName: "Alice B",
			Email:    "b@x.com",
		})

		require.NoError(t, err)
		assert.Equal(t, "Alice B", out.FullName)
	})
}

func TestUserService_UpdateAvatar(t *testing.T) {
	t.Run("no file", func(t *testing.T) {
		s, _, _, _ := newService(t)

		out, err := s.UpdateAvatar(context.Background(), "u1", nil)

		assert.ErrorIs(t, err, autherror.ErrAvatarFileRequired)
		assert.Nil(t, out)
	})

	t.Run("upload fails", func(t *testing.T) {
		s, _, _, mockUploader := newService(t)

		mockUploader.EXPECT().Upload(gomock.Any(), "/tmp/a.png").Return("", errors.New("boom"))

		out, err := s.UpdateAvatar(context.Background(), "u1", &dto.FileInput{Path: "/tmp/a.png"})

		assert.ErrorIs(t, err, autherror.ErrAvatarUploadFailed)
		assert.Nil(t, out)
	})

	t.Run("success", func(t *testing.T) {
		s, mockRepo, _, mockUploader := newService(t)

		mockUploader.EXPECT().Upload(gomock.Any(), "/tmp/a.png").Return("https://media/new.png", nil)
		mockRepo.EXPECT().UpdateFields(gomock.Any(), "u1", gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, update domain.UserUpdate) (*domain.User, error) {
				require.NotNil(t, update.AvatarURL)
				return &domain.User{ID: "u1", AvatarURL: *update.AvatarURL}, nil
			})

		out, err := s.UpdateAvatar(context.Background(), "u1", &dto.FileInput{Path: "/tmp/a.png"})

		require.NoError(t, err)
		assert.Equal(t, "https://media/new.png", out.AvatarURL)
	})
}

func TestUserService_UpdateCoverImage(t *testing.T) {
	t.Run("upload fails", func(t *testing.T) {
		s, _, _, mockUploader := newService(t)

		mockUploader.EXPECT().Upload(gomock.Any(), "/tmp/c.png").Return("", nil)

		out, err := s.UpdateCoverImage(context.Background(), "u1", &dto.FileInput{Path: "/tmp/c.png"})

		assert.ErrorIs(t, err, autherror.ErrCoverUploadFailed)
		assert.Nil(t, out)
	})

	t.Run("success", func(t *testing.T) {
		s, mockRepo, _, mockUploader := newService(t)

		mockUploader.EXPECT().Upload(gomock.Any(), "/tmp/c.png").Return("https://media/cover.png", nil)
		mockRepo.EXPECT().UpdateFields(gomock.Any(), "u1", gomock.Any()).Return(
			&domain.User{ID: "u1", CoverImageURL: "https://media/cover.png"}, nil)

		out, err := s.UpdateCoverImage(context.Background(), "u1", &dto.FileInput{Path: "/tmp/c.png"})

		require.NoError(t, err)
		assert.Equal(t, "https://media/cover.png", out.CoverImageURL)
	})
}

func TestUserService_GetUserByID(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		s, mockRepo, _, _ := newService(t)

		mockRepo.EXPECT().GetByID(gomock.Any(), "ghost").Return(nil, nil)

		out, err := s.GetUserByID(context.Background(), "ghost")

		assert.ErrorIs(t, err, autherror.ErrUserNotFound)
		assert.Nil(t, out)
	})

	t.Run("success", func(t *testing.T) {
		s, mockRepo, _, _ := newService(t)

		mockRepo.EXPECT().GetByID(gomock.Any(), "u1").Return(&domain.User{ID: "u1", Username: "alice"}, nil)

		out, err := s.GetUserByID(context.Background(), "u1")

		require.NoError(t, err)
		assert.Equal(t, "alice", out.Username)
	})
}
