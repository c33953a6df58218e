package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"PracticeManager/apperrors"
	"PracticeManager/middlewares"
	"PracticeManager/services"
	"PracticeManager/utils"
)

type AuthHandler struct {
	auth         services.AuthService
	registration services.RegistrationService
}

func NewAuthHandler(auth services.AuthService, registration services.RegistrationService) *AuthHandler {
	return &AuthHandler{auth: auth, registration: registration}
}

// Register submits the completed registration wizard.
func (h *AuthHandler) Register(c *gin.Context) {
	var in services.RegistrationInput
	if !bindJSON(c, &in) {
		return
	}
	res, err := h.registration.Register(c.Request.Context(), in)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// ValidateStep checks one wizard step. The body is that step's fields.
func (h *AuthHandler) ValidateStep(c *gin.Context) {
	step := c.Param("step")
	var in services.RegistrationInput
	target, ok := in.StepTarget(step)
	if !ok {
		middlewares.HttpError(c, apperrors.BadRequest("unknown registration step "+step))
		return
	}
	if err := json.NewDecoder(c.Request.Body).Decode(target); err != nil {
		middlewares.HttpError(c, apperrors.BadRequest("invalid request body").WithStep(step))
		return
	}
	if err := h.registration.ValidateStep(c.Request.Context(), step, in); err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"step": step, "valid": true})
}

// Login authenticates the user and returns tokens along with user info
func (h *AuthHandler) Login(c *gin.Context) {
	var credentials struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &credentials) {
		return
	}

	res, err := h.auth.Login(c.Request.Context(), credentials.Email, credentials.Password)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	utils.SetAuthCookies(c, res.AccessToken, res.RefreshToken)
	c.JSON(http.StatusOK, res)
}

// RefreshToken issues a new access token from the refresh cookie or body.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if c.Request.ContentLength > 0 && !bindJSON(c, &body) {
		return
	}
	token := utils.RefreshTokenFrom(c, body.RefreshToken)
	if token == "" {
		middlewares.HttpError(c, apperrors.Unauthorized("missing refresh token"))
		return
	}

	access, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	utils.SetAccessCookie(c, access)
	c.JSON(http.StatusOK, gin.H{"accessToken": access})
}

// Logoff ends the session and clears the cookies.
func (h *AuthHandler) Logoff(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	if err := h.auth.Logout(c.Request.Context(), session); err != nil {
		middlewares.HttpError(c, err)
		return
	}
	utils.ClearAuthCookies(c)
	noContent(c)
}

// SendResetCode emails a password reset code.
func (h *AuthHandler) SendResetCode(c *gin.Context) {
	var data struct {
		Email string `json:"email" binding:"required"`
	}
	if !bindJSON(c, &data) {
		return
	}
	if err := h.auth.SendResetCode(c.Request.Context(), data.Email); err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reset code sent"})
}

// ChangePassword sets a new password using an emailed reset code.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var data struct {
		Email       string `json:"email" binding:"required"`
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}
	if !bindJSON(c, &data) {
		return
	}
	if err := h.auth.ChangePassword(c.Request.Context(), data.Email, data.Code, data.NewPassword); err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}

func (h *AuthHandler) GetUserProfile(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	user, err := h.auth.Profile(c.Request.Context(), session)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "permissions": session.Permissions})
}

func (h *AuthHandler) UpdateUserProfile(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	var in services.ProfileInput
	if !bindJSON(c, &in) {
		return
	}
	user, err := h.auth.UpdateProfile(c.Request.Context(), session, in)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
