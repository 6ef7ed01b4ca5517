package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	verrors "vlab/internal/errors"
	"vlab/internal/logging"
)

// ServerHealth reports whether the database and the ngspice binary are
// reachable. The endpoint itself answering means the HTTP server is up, so
// a degraded dependency still returns 200 with the detail in the body.
func (h OpenAPIV1) ServerHealth(c *gin.Context) {
	resp := HealthResponse{Status: "ok", Database: "ok"}

	if err := h.store.Ping(c.Request.Context()); err != nil {
		resp.Status = "degraded"
		resp.Database = err.Error()
	}

	version, err := h.sim.Version(c.Request.Context())
	if err != nil {
		resp.Status = "degraded"
	} else {
		resp.NgspiceVersion = version
	}

	c.JSON(http.StatusOK, resp)
}

// SetLogLevel changes the server log level dynamically.
func (h OpenAPIV1) SetLogLevel(c *gin.Context) {
	req := &LogLevelReq{Level: "info"}
	if err := c.ShouldBindJSON(req); err != nil {
		_ = c.Error(verrors.ErrAPIInvalidParam.GenWithStack("invalid log level: %s", err.Error()))
		return
	}
	if err := logging.SetLogLevel(req.Level); err != nil {
		_ = c.Error(verrors.ErrAPIInvalidParam.GenWithStack("fail to change log level: %s", req.Level))
		return
	}
	logging.L().Warn("log level changed", zap.String("level", req.Level))
	c.JSON(http.StatusOK, &EmptyResponse{})
}
