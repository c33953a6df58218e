package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"PracticeManager/middlewares"
	"PracticeManager/services"
)

type UserHandler struct {
	service services.UserService
}

func NewUserHandler(service services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) GetAllUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context(), orgID(c))
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), orgID(c), c.Param("user_id"))
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var in services.CreateUserInput
	if !bindJSON(c, &in) {
		return
	}
	user, err := h.service.CreateUser(c.Request.Context(), orgID(c), in)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	var in services.UpdateUserInput
	if !bindJSON(c, &in) {
		return
	}
	user, err := h.service.UpdateUser(c.Request.Context(), session, c.Param("user_id"), in)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	if err := h.service.DeleteUser(c.Request.Context(), session, c.Param("user_id")); err != nil {
		middlewares.HttpError(c, err)
		return
	}
	noContent(c)
}

func (h *UserHandler) GetRoles(c *gin.Context) {
	roles, err := h.service.ListRoles(c.Request.Context())
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusOK, roles)
}

func (h *UserHandler) GetUserPermissions(c *gin.Context) {
	perms, err := h.service.Permissions(c.Request.Context(), orgID(c), c.Param("user_id"))
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"permissions": perms})
}
