// Package middleware provides the gin middleware shared by all API routes:
// request logging, error-to-status translation, and bearer authentication.
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vlab/internal/auth"
	verrors "vlab/internal/errors"
	"vlab/internal/logging"
	"vlab/internal/store"
)

// userKey is the gin context key the authenticated user is stored under.
const userKey = "vlab/user"

// HTTPError is the JSON body returned for any failed request.
type HTTPError struct {
	Code    string `json:"error_code"`
	Message string `json:"error_msg"`
}

// LogMiddleware logs every request with its latency and status.
func LogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logging.L().Info("api request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("duration", time.Since(start)),
			zap.String("error", c.Errors.ByType(gin.ErrorTypePrivate).String()),
		)
	}
}

// ErrorHandleMiddleware translates errors attached to the context into an
// HTTP status and a JSON error body. Handlers report failures with
// `_ = c.Error(err)` and return.
func ErrorHandleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		ginErr := c.Errors.Last()
		if ginErr == nil {
			return
		}
		err := ginErr.Err
		c.JSON(statusFor(err), httpError(err))
	}
}

func httpError(err error) HTTPError {
	code, ok := verrors.RFCCode(err)
	if !ok {
		code = verrors.ErrInternalServer.RFCCode()
	}
	return HTTPError{Code: string(code), Message: err.Error()}
}

func statusFor(err error) int {
	switch {
	case verrors.Is(err, verrors.ErrAPIInvalidParam),
		verrors.Is(err, verrors.ErrInvalidNetlist),
		verrors.Is(err, verrors.ErrInvalidAnalysisParams):
		return http.StatusBadRequest
	case verrors.Is(err, verrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case verrors.Is(err, verrors.ErrNotFound):
		return http.StatusNotFound
	case verrors.Is(err, verrors.ErrConflict):
		return http.StatusConflict
	case verrors.Is(err, verrors.ErrNgspiceNotFound),
		verrors.Is(err, verrors.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// AuthenticateMiddleware rejects requests without a valid bearer token and
// stores the resolved user on the context for handlers.
func AuthenticateMiddleware(authSvc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, HTTPError{
				Code:    string(verrors.ErrUnauthorized.RFCCode()),
				Message: "missing bearer token",
			})
			return
		}
		user, err := authSvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(statusFor(err), httpError(err))
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// GetUser returns the user placed on the context by AuthenticateMiddleware.
func GetUser(c *gin.Context) (*store.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*store.User)
	return user, ok
}
