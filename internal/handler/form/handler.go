package form

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/formkit/internal/form"
	"github.com/jwalitptl/formkit/internal/handler"
	"github.com/jwalitptl/formkit/internal/indicator"
	"github.com/jwalitptl/formkit/internal/submit"
	"github.com/jwalitptl/formkit/pkg/errors"
	"github.com/jwalitptl/formkit/pkg/httputil"
)

// Service is the part of the submission controller the form endpoints use.
type Service interface {
	Catalog() *form.Catalog
	Check(formName string, values map[string]string) (submit.CheckResult, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	forms := r.Group("/forms")
	{
		forms.GET("", h.List)
		forms.GET("/:name", h.Get)
		forms.POST("/:name/check", h.Check)
	}
}

func (h *Handler) List(c *gin.Context) {
	httputil.RespondWithSuccess(c, h.svc.Catalog().List())
}

func (h *Handler) Get(c *gin.Context) {
	name := c.Param("name")
	def, ok := h.svc.Catalog().Get(name)
	if !ok {
		_ = c.Error(errors.NotFound("form "+name, nil))
		return
	}
	httputil.RespondWithSuccess(c, def)
}

type CheckRequest struct {
	Values map[string]string `json:"values" binding:"required,max=32"`
}

type CheckResponse struct {
	submit.CheckResult
	CanSubmit bool            `json:"can_submit"`
	Indicator *indicator.View `json:"indicator,omitempty"`
}

// Check reports what would stop the form from being submitted. The verdict
// is data, so a blocked form is still a 200.
func (h *Handler) Check(c *gin.Context) {
	var req CheckRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	res, err := h.svc.Check(c.Param("name"), req.Values)
	if err != nil {
		_ = c.Error(err)
		return
	}

	resp := CheckResponse{CheckResult: res, CanSubmit: res.CanSubmit()}
	if res.Strength != nil {
		v := indicator.Render(*res.Strength)
		resp.Indicator = &v
	}
	httputil.RespondWithSuccess(c, resp)
}
