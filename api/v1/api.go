// Package v1 exposes the REST API: account management, circuit storage,
// simulation runs, and server status.
package v1

import (
	"context"

	"github.com/gin-gonic/gin"

	"vlab/api/middleware"
	"vlab/internal/auth"
	"vlab/internal/spice"
	"vlab/internal/store"
)

// Simulator runs circuit analyses. The production implementation shells out
// to ngspice; tests substitute a fake.
type Simulator interface {
	Simulate(ctx context.Context, req *spice.Request) (*spice.Result, error)
	Version(ctx context.Context) (string, error)
}

// OpenAPIV1 provides the v1 API handlers.
type OpenAPIV1 struct {
	auth  *auth.Service
	store *store.Store
	sim   Simulator
}

// NewOpenAPIV1 creates a new OpenAPIV1.
func NewOpenAPIV1(authSvc *auth.Service, st *store.Store, sim Simulator) OpenAPIV1 {
	return OpenAPIV1{auth: authSvc, store: st, sim: sim}
}

// RegisterOpenAPIV1Routes registers routes for OpenAPIV1.
func RegisterOpenAPIV1Routes(router *gin.Engine, api OpenAPIV1) {
	v1 := router.Group("/api/v1")

	v1.Use(middleware.LogMiddleware())
	v1.Use(middleware.ErrorHandleMiddleware())

	v1.GET("health", api.ServerHealth)
	v1.POST("log", api.SetLogLevel)

	authenticateMiddleware := middleware.AuthenticateMiddleware(api.auth)

	// account API
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", api.Register)
	authGroup.POST("/login", api.Login)
	authGroup.GET("/me", authenticateMiddleware, api.CurrentUser)

	v1.POST("simulate", authenticateMiddleware, api.Simulate)

	// circuit API
	circuitGroup := v1.Group("/circuits")
	circuitGroup.Use(authenticateMiddleware)
	circuitGroup.POST("", api.CreateCircuit)
	circuitGroup.GET("", api.ListCircuits)
	circuitGroup.GET("/:circuit_id", api.GetCircuit)
	circuitGroup.PUT("/:circuit_id", api.UpdateCircuit)
	circuitGroup.DELETE("/:circuit_id", api.DeleteCircuit)

	// simulation history API
	simulationGroup := v1.Group("/simulations")
	simulationGroup.Use(authenticateMiddleware)
	simulationGroup.GET("", api.ListSimulations)
	simulationGroup.GET("/:simulation_id", api.GetSimulation)
}
