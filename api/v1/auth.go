package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vlab/api/middleware"
	"vlab/internal/auth"
	verrors "vlab/internal/errors"
)

// Register creates a new account and returns its public view.
func (h OpenAPIV1) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(verrors.ErrAPIInvalidParam.GenWithStack("invalid registration: %s", err.Error()))
		return
	}
	user, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(user))
}

// Login verifies credentials and returns a bearer token.
func (h OpenAPIV1) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(verrors.ErrAPIInvalidParam.GenWithStack("invalid login: %s", err.Error()))
		return
	}
	token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// CurrentUser returns the account behind the request's bearer token.
func (h OpenAPIV1) CurrentUser(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		_ = c.Error(verrors.ErrUnauthorized.GenWithStack("no authenticated user"))
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}
