package handler

import (
	stderrors "errors"

	"github.com/gin-gonic/gin"
	playground "github.com/go-playground/validator/v10"

	"github.com/jwalitptl/formkit/pkg/errors"
)

// ReadinessChecker reports whether a dependency can take traffic.
type ReadinessChecker interface {
	Ready() error
}

// Handler contains dependencies for the health endpoints
type Handler struct {
	checks map[string]ReadinessChecker
}

// NewHandler creates a new handler instance. checks are consulted by the
// readiness check, keyed by the name reported on failure.
func NewHandler(checks map[string]ReadinessChecker) *Handler {
	return &Handler{checks: checks}
}

// BindJSON binds the request body into obj. On failure the error is attached
// to the context for the error middleware and false is returned.
func BindJSON(c *gin.Context, obj interface{}) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}
	var verrs playground.ValidationErrors
	if stderrors.As(err, &verrs) {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return false
	}
	_ = c.Error(errors.BadRequest("invalid request body", err))
	return false
}
