package utils

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

func SetAuthCookies(c *gin.Context, accessToken, refreshToken string) {
	setCookie(c, AccessTokenCookie, accessToken, AccessTokenExpiry)
	setCookie(c, RefreshTokenCookie, refreshToken, RefreshTokenExpiry)
}

func SetAccessCookie(c *gin.Context, accessToken string) {
	setCookie(c, AccessTokenCookie, accessToken, AccessTokenExpiry)
}

func setCookie(c *gin.Context, name, value string, expiry time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(expiry.Seconds()), "/", "", secureCookies(), true)
}

func ClearAuthCookies(c *gin.Context) {
	clearCookie(c, AccessTokenCookie)
	clearCookie(c, RefreshTokenCookie)
}

func clearCookie(c *gin.Context, name string) {
	c.SetCookie(name, "", -1, "/", "", secureCookies(), true)
}

func secureCookies() bool {
	return gin.Mode() != gin.DebugMode // Toggle for local dev
}

// AccessTokenFrom returns the access token of a request. The
// Authorization header wins over the cookie, the cookie over the query.
func AccessTokenFrom(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		if t := strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")); t != "" {
			return t
		}
	}
	if t, err := c.Cookie(AccessTokenCookie); err == nil && t != "" {
		return t
	}
	return c.Query(AccessTokenCookie)
}

// RefreshTokenFrom reads the refresh token cookie, falling back to body.
func RefreshTokenFrom(c *gin.Context, body string) string {
	if t, err := c.Cookie(RefreshTokenCookie); err == nil && t != "" {
		return t
	}
	return body
}
