package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vlab/api/middleware"
	verrors "vlab/internal/errors"
	"vlab/internal/store"
)

// CreateCircuit saves a new circuit for the authenticated user.
func (h OpenAPIV1) CreateCircuit(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		_ = c.Error(verrors.ErrUnauthorized.GenWithStack("no authenticated user"))
		return
	}
	var req CircuitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(verrors.ErrAPIInvalidParam.GenWithStack("invalid circuit: %s", err.Error()))
		return
	}

	circuit := &store.Circuit{
		OwnerID:     user.ID,
		Name:        req.Name,
		Description: req.Description,
		Netlist:     req.Netlist,
		IsPublic:    req.IsPublic,
	}
	if err := h.store.CreateCircuit(c.Request.Context(), circuit); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, circuit)
}

// ListCircuits returns the authenticated user's circuits.
func (h OpenAPIV1) ListCircuits(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		_ = c.Error(verrors.ErrUnauthorized.GenWithStack("no authenticated user"))
		return
	}
	circuits, err := h.store.ListCircuits(c.Request.Context(), user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, circuits)
}

// GetCircuit returns one circuit the user owns or that is public.
func (h OpenAPIV1) GetCircuit(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		_ = c.Error(verrors.ErrUnauthorized.GenWithStack("no authenticated user"))
		return
	}
	circuit, err := h.store.GetCircuit(c.Request.Context(), c.Param("circuit_id"), user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, circuit)
}

// UpdateCircuit replaces the mutable fields of a circuit the user owns.
func (h OpenAPIV1) UpdateCircuit(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		_ = c.Error(verrors.ErrUnauthorized.GenWithStack("no authenticated user"))
		return
	}
	var req CircuitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(verrors.ErrAPIInvalidParam.GenWithStack("invalid circuit: %s", err.Error()))
		return
	}

	circuit := &store.Circuit{
		ID:          c.Param("circuit_id"),
		OwnerID:     user.ID,
		Name:        req.Name,
		Description: req.Description,
		Netlist:     req.Netlist,
		IsPublic:    req.IsPublic,
	}
	if err := h.store.UpdateCircuit(c.Request.Context(), circuit); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, circuit)
}

// DeleteCircuit removes a circuit the user owns.
func (h OpenAPIV1) DeleteCircuit(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		_ = c.Error(verrors.ErrUnauthorized.GenWithStack("no authenticated user"))
		return
	}
	if err := h.store.DeleteCircuit(c.Request.Context(), c.Param("circuit_id"), user.ID); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, &EmptyResponse{})
}
