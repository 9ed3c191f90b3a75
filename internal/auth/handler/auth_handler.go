package handler

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Sundram11/backend01/internal/auth/dto"
	"github.com/Sundram11/backend01/internal/auth/service"
	autherror "github.com/Sundram11/backend01/internal/errors"
	"github.com/Sundram11/backend01/internal/logging"
	"github.com/Sundram11/backend01/pkg/constant"
)

type AuthHandler struct {
	userService  *service.UserService
	tokenService service.TokenGenerator
	log          logging.Logger
}

func NewAuthHandler(userService *service.UserService, tokenService service.TokenGenerator, log logging.Logger) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		tokenService: tokenService,
		log:          log.With("module", "auth_handler"),
	}
}

// apiResponse is the success envelope: status code, payload, human message.
type apiResponse struct {
	Status  int    `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
}

type apiError struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func respond(c *fiber.Ctx, status int, data any, message string) error {
	return c.Status(status).JSON(apiResponse{Status: status, Data: data, Message: message})
}

// fail translates a typed error into the error envelope. Untyped errors are
// logged and collapse to a generic 500 so no internals leak.
func (h *AuthHandler) fail(c *fiber.Ctx, err error) error {
	status := autherror.StatusOf(err)
	if status == fiber.StatusInternalServerError {
		h.log.Error(c.UserContext(), "request failed", "path", c.Path(), "error", err)
	}

	return c.Status(status).JSON(apiError{
		Status:  status,
		Error:   string(autherror.KindOf(err)),
		Message: autherror.MessageOf(err),
	})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	input := dto.RegisterInput{
		FullName: c.FormValue("fullName"),
		Email:    c.FormValue("email"),
		Username: c.FormValue("username"),
		Password: c.FormValue("password"),
	}

	avatar, err := h.spoolFormFile(c, "avatar")
	if err != nil {
		return h.fail(c, err)
	}
	input.Avatar = avatar

	coverImage, err := h.spoolFormFile(c, "coverImage")
	if err != nil {
		return h.fail(c, err)
	}
	input.CoverImage = coverImage

	user, err := h.userService.Register(c.UserContext(), input)
	if err != nil {
		return h.fail(c, err)
	}

	return respond(c, fiber.StatusCreated, user, "user registered successfully")
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return h.fail(c, autherror.Validation("invalid input"))
	}

	out, err := h.userService.Login(c.UserContext(), input)
	if err != nil {
		return h.fail(c, err)
	}

	h.setAuthCookies(c, out.AccessToken, out.RefreshToken)

	return respond(c, fiber.StatusOK, out, "user logged in successfully")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user := CurrentUser(c)

	if err := h.userService.Logout(c.UserContext(), user.ID); err != nil {
		return h.fail(c, err)
	}

	clearAuthCookies(c)

	return respond(c, fiber.StatusOK, nil, "user logged out")
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	// Cookie first, body as a fallback for clients that cannot send cookies.
	token := c.Cookies(constant.RefreshTokenCookie)
	if token == "" {
		var input dto.RefreshInput
		if err := c.BodyParser(&input); err == nil {
			token = input.RefreshToken
		}
	}

	tokens, err := h.userService.Refresh(c.UserContext(), token)
	if err != nil {
		return h.fail(c, err)
	}

	h.setAuthCookies(c, tokens.AccessToken, tokens.RefreshToken)

	return respond(c, fiber.StatusOK, tokens, "access token refreshed")
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var input dto.ChangePasswordInput
	if err := c.BodyParser(&input); err != nil {
		return h.fail(c, autherror.Validation("invalid input"))
	}

	user := CurrentUser(c)

	if err := h.userService.ChangePassword(c.UserContext(), user.ID, input); err != nil {
		return h.fail(c, err)
	}

	return respond(c, fiber.StatusOK, nil, "password changed successfully")
}

func (h *AuthHandler) GetCurrentUser(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, CurrentUser(c), "current user fetched successfully")
}

func (h *AuthHandler) UpdateAccount(c *fiber.Ctx) error {
	var input dto.UpdateAccountInput
	if err := c.BodyParser(&input); err != nil {
		return h.fail(c, autherror.Validation("invalid input"))
	}

	user := CurrentUser(c)

	updated, err := h.userService.UpdateAccount(c.UserContext(), user.ID, input)
	if err != nil {
		return h.fail(c, err)
	}

	return respond(c, fiber.StatusOK, updated, "account details updated successfully")
}

func (h *AuthHandler) UpdateAvatar(c *fiber.Ctx) error {
	file, err := h.spoolFormFile(c, "avatar")
	if err != nil {
		return h.fail(c, err)
	}

	user := CurrentUser(c)

	updated, err := h.userService.UpdateAvatar(c.UserContext(), user.ID, file)
	if err != nil {
		return h.fail(c, err)
	}

	return respond(c, fiber.StatusOK, updated, "avatar updated successfully")
}

func (h *AuthHandler) UpdateCoverImage(c *fiber.Ctx) error {
	file, err := h.spoolFormFile(c, "coverImage")
	if err != nil {
		return h.fail(c, err)
	}

	user := CurrentUser(c)

	updated, err := h.userService.UpdateCoverImage(c.UserContext(), user.ID, file)
	if err != nil {
		return h.fail(c, err)
	}

	return respond(c, fiber.StatusOK, updated, "cover image updated successfully")
}

// spoolFormFile saves a multipart file to a local temp path for the media
// uploader. A missing file yields (nil, nil): absence is the service layer's
// call, not a transport error.
func (h *AuthHandler) spoolFormFile(c *fiber.Ctx, field string) (*dto.FileInput, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}

	path := filepath.Join(os.TempDir(), uuid.New().String()+filepath.Ext(fileHeader.Filename))
	if err := c.SaveFile(fileHeader, path); err != nil {
		return nil, autherror.Internal("failed to store uploaded file")
	}

	return &dto.FileInput{Path: path}, nil
}

func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	now := time.Now()

	c.Cookie(&fiber.Cookie{
		Name:     constant.AccessTokenCookie,
		Value:    accessToken,
		Expires:  now.Add(h.tokenService.GetAccessTokenExpiry()),
		HTTPOnly: true,
		Secure:   true,
	})
	c.Cookie(&fiber.Cookie{
		Name:     constant.RefreshTokenCookie,
		Value:    refreshToken,
		Expires:  now.Add(h.tokenService.GetRefreshTokenExpiry()),
		HTTPOnly: true,
		Secure:   true,
	})
}

func clearAuthCookies(c *fiber.Ctx) {
	expired := time.Now().Add(-time.Hour)

	for _, name := range []string{constant.AccessTokenCookie, constant.RefreshTokenCookie} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Expires:  expired,
			HTTPOnly: true,
			Secure:   true,
		})
	}
}
