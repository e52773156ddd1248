package httputil

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/formkit/pkg/errors"
	"github.com/jwalitptl/formkit/pkg/validator"
)

// Response wraps all API responses
type Response struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Data    interface{}            `json:"data,omitempty"`
	Errors  []validator.FieldError `json:"errors,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: StatusSuccess,
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  StatusError,
		Message: message,
	}
}

// RespondWithSuccess sends a 200 success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, NewSuccessResponse(data))
}

// RespondWithError sends an error response. AppErrors choose the status and
// message; field errors are listed; anything else is a 500 without detail.
func RespondWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	resp := NewErrorResponse("Internal server error")

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		status = appErr.StatusCode()
		resp.Message = appErr.Message
	}

	var fieldErrs validator.FieldErrors
	if stderrors.As(err, &fieldErrs) {
		if appErr == nil {
			status = http.StatusBadRequest
			resp.Message = "validation failed"
		}
		resp.Errors = fieldErrs
	}

	c.JSON(status, resp)
}
