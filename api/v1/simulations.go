package v1

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vlab/api/middleware"
	verrors "vlab/internal/errors"
	"vlab/internal/logging"
	"vlab/internal/spice"
	"vlab/internal/store"
)

// Simulate runs an analysis for the authenticated user and records the run
// in their history. Bad requests fail fast; ngspice failures are reported
// in-band as an unsuccessful result so the client can show the message.
func (h OpenAPIV1) Simulate(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		_ = c.Error(verrors.ErrUnauthorized.GenWithStack("no authenticated user"))
		return
	}
	var req spice.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(verrors.ErrAPIInvalidParam.GenWithStack("invalid simulation request: %s", err.Error()))
		return
	}
	if err := req.Validate(); err != nil {
		_ = c.Error(err)
		return
	}

	start := time.Now()
	result, err := h.sim.Simulate(c.Request.Context(), &req)
	elapsed := time.Since(start)

	if err != nil {
		if verrors.Is(err, verrors.ErrInvalidNetlist) ||
			verrors.Is(err, verrors.ErrInvalidAnalysisParams) ||
			verrors.Is(err, verrors.ErrNgspiceNotFound) {
			_ = c.Error(err)
			return
		}
		result = &spice.Result{
			Success:  false,
			Message:  err.Error(),
			Analysis: req.Analysis,
		}
	}

	h.recordRun(c, user, &req, result, elapsed)
	c.JSON(http.StatusOK, result)
}

// recordRun appends a finished run to the user's history. History is best
// effort: a write failure is logged, not surfaced to the client.
func (h OpenAPIV1) recordRun(c *gin.Context, user *store.User, req *spice.Request, result *spice.Result, elapsed time.Duration) {
	params, err := json.Marshal(req.Parameters)
	if err != nil {
		params = nil
	}
	results, err := json.Marshal(result)
	if err != nil {
		results = nil
	}

	sim := &store.Simulation{
		UserID:        user.ID,
		CircuitName:   req.CircuitName,
		Netlist:       req.Netlist,
		Analysis:      string(req.Analysis),
		Parameters:    params,
		Results:       results,
		Success:       result.Success,
		ErrorMessage:  errorMessageOf(result),
		ExecutionTime: elapsed.Milliseconds(),
	}
	if err := h.store.SaveSimulation(c.Request.Context(), sim); err != nil {
		logging.L().Warn("failed to record simulation run",
			zap.String("user", user.Username), zap.Error(err))
	}
}

func errorMessageOf(result *spice.Result) string {
	if result.Success {
		return ""
	}
	return result.Message
}

// ListSimulations returns the authenticated user's recent runs, newest
// first. The optional limit query parameter caps the count.
func (h OpenAPIV1) ListSimulations(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		_ = c.Error(verrors.ErrUnauthorized.GenWithStack("no authenticated user"))
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			_ = c.Error(verrors.ErrAPIInvalidParam.GenWithStack("invalid limit: %s", raw))
			return
		}
		limit = n
	}
	sims, err := h.store.ListSimulations(c.Request.Context(), user.ID, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sims)
}

// GetSimulation returns one of the authenticated user's recorded runs.
func (h OpenAPIV1) GetSimulation(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		_ = c.Error(verrors.ErrUnauthorized.GenWithStack("no authenticated user"))
		return
	}
	sim, err := h.store.GetSimulation(c.Request.Context(), c.Param("simulation_id"), user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sim)
}
