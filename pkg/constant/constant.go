package constant

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"

	// DefaultBcryptCost is used when BCRYPT_COST is not configured.
	DefaultBcryptCost = 10

	// Token lifetime defaults, in minutes. Access tokens are short-lived;
	// refresh tokens live for ten days.
	DefaultAccessExpiryMin  = 15
	DefaultRefreshExpiryMin = 14400
)
