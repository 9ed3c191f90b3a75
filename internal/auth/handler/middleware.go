package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Sundram11/backend01/internal/auth/dto"
	autherror "github.com/Sundram11/backend01/internal/errors"
	"github.com/Sundram11/backend01/pkg/constant"
)

const currentUserKey = "currentUser"

// AuthRequired verifies the access token from the accessToken cookie or the
// Authorization header and stores the sanitized user in request locals.
func (h *AuthHandler) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(constant.AccessTokenCookie)
		if token == "" {
			token = strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		}
		if token == "" {
			return h.fail(c, autherror.ErrMissingAccessToken)
		}

		claims, err := h.tokenService.VerifyAccessToken(token)
		if err != nil {
			return h.fail(c, autherror.ErrInvalidAccessToken)
		}

		user, err := h.userService.GetUserByID(c.UserContext(), claims.UserID)
		if err != nil {
			return h.fail(c, autherror.ErrInvalidAccessToken)
		}

		c.Locals(currentUserKey, user)

		return c.Next()
	}
}

// CurrentUser returns the authenticated user placed by AuthRequired. It must
// only be called from routes behind the middleware.
func CurrentUser(c *fiber.Ctx) *dto.UserOutput {
	user, _ := c.Locals(currentUserKey).(*dto.UserOutput)
	return user
}
