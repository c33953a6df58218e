package middlewares

import (
	"github.com/gin-gonic/gin"

	"PracticeManager/apperrors"
	"PracticeManager/services"
	"PracticeManager/utils"
)

const sessionKey = "session"

// TokenAuthMiddleware loads the caller's session from the access token.
func TokenAuthMiddleware(auth services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := auth.Authenticate(c.Request.Context(), utils.AccessTokenFrom(c))
		if err != nil {
			HttpError(c, err)
			return
		}
		c.Set(sessionKey, session)
		c.Next()
	}
}

// OrgAccess rejects requests whose :org_id is not the session's practice.
func OrgAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := CurrentSession(c)
		if !ok {
			HttpError(c, apperrors.Unauthorized("authentication required"))
			return
		}
		if c.Param("org_id") != session.OrgID {
			HttpError(c, apperrors.Forbidden("you do not have access to this practice"))
			return
		}
		c.Next()
	}
}

// RequirePermission restricts a route to sessions holding permission.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := CurrentSession(c)
		if !ok {
			HttpError(c, apperrors.Unauthorized("authentication required"))
			return
		}
		if !session.Can(permission) {
			HttpError(c, apperrors.Forbidden("insufficient privileges"))
			return
		}
		c.Next()
	}
}

// CurrentSession returns the session set by TokenAuthMiddleware.
func CurrentSession(c *gin.Context) (*services.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	session, ok := v.(*services.Session)
	return session, ok && session != nil
}
