package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	playground "github.com/go-playground/validator/v10"

	"github.com/jwalitptl/formkit/pkg/httputil"
	"github.com/jwalitptl/formkit/pkg/validator"
)

// RegisterBindingValidators installs the json field naming on gin's binding
// validator so ShouldBindJSON reports the same field names as pkg/validator.
func RegisterBindingValidators() error {
	v, ok := binding.Validator.Engine().(*playground.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator %T", binding.Validator.Engine())
	}
	validator.Register(v)
	return nil
}

// Validation renders binding errors that handlers attached with c.Error as
// a 400 listing the failing fields.
func Validation(v *validator.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		var fieldErrs validator.FieldErrors
		for _, e := range c.Errors {
			var verrs playground.ValidationErrors
			if errors.As(e.Err, &verrs) {
				fieldErrs = append(fieldErrs, v.Translate(verrs)...)
			}
		}
		if len(fieldErrs) == 0 {
			return
		}

		resp := httputil.NewErrorResponse("validation failed")
		resp.Errors = fieldErrs
		c.AbortWithStatusJSON(http.StatusBadRequest, resp)
	}
}
