package strength

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/formkit/internal/handler"
	"github.com/jwalitptl/formkit/internal/indicator"
	"github.com/jwalitptl/formkit/pkg/httputil"
	"github.com/jwalitptl/formkit/pkg/strength"
)

type Evaluator interface {
	Evaluate(password string) strength.Result
}

type Handler struct {
	svc Evaluator
}

func NewHandler(svc Evaluator) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/password/strength", h.Evaluate)
}

// Request bounds the password to 1024 characters.
type Request struct {
	Password string `json:"password" binding:"max=1024"`
}

type Response struct {
	strength.Result
	Display   string         `json:"display_label"`
	Indicator indicator.View `json:"indicator"`
}

// Evaluate scores the posted password. An empty password is a valid request
// with score zero.
func (h *Handler) Evaluate(c *gin.Context) {
	var req Request
	if !handler.BindJSON(c, &req) {
		return
	}

	r := h.svc.Evaluate(req.Password)
	httputil.RespondWithSuccess(c, Response{
		Result:    r,
		Display:   r.DisplayLabel(),
		Indicator: indicator.Render(r),
	})
}
