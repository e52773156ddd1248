package form

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/formkit/internal/form"
	"github.com/jwalitptl/formkit/internal/middleware"
	"github.com/jwalitptl/formkit/internal/submit"
	"github.com/jwalitptl/formkit/pkg/validator"
)

type envelope struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message"`
	Data    json.RawMessage        `json:"data"`
	Errors  []validator.FieldError `json:"errors"`
}

func setup(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.RegisterBindingValidators())

	catalog, err := form.DefaultCatalog(nil)
	require.NoError(t, err)
	ctrl := submit.NewController(catalog, submit.Config{BaseURL: "http://backend.invalid"}, nil, nil)

	r := gin.New()
	r.Use(middleware.ErrorHandler(), middleware.Validation(validator.New()))
	NewHandler(ctrl).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestList(t *testing.T) {
	r := setup(t)

	w, env := do(t, r, http.MethodGet, "/api/v1/forms", "")
	require.Equal(t, http.StatusOK, w.Code)

	var defs []form.Definition
	require.NoError(t, json.Unmarshal(env.Data, &defs))
	require.Len(t, defs, 4)
	assert.Equal(t, form.LoginBuyer, defs[0].Name)
	assert.NotContains(t, w.Body.String(), "An error occurred")
}

func TestGet(t *testing.T) {
	r := setup(t)

	w, env := do(t, r, http.MethodGet, "/api/v1/forms/"+form.SignupFarmer, "")
	require.Equal(t, http.StatusOK, w.Code)

	var def form.Definition
	require.NoError(t, json.Unmarshal(env.Data, &def))
	assert.Equal(t, form.KindSignup, def.Kind)
	assert.True(t, def.GatePassword)
	assert.Equal(t, "password", def.PasswordField)
	require.Len(t, def.Fields, 5)

	w, env = do(t, r, http.MethodGet, "/api/v1/forms/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "form nope not found", env.Message)
}

func checkResponse(t *testing.T, env envelope) CheckResponse {
	t.Helper()
	var resp CheckResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	return resp
}

func TestCheckReady(t *testing.T) {
	r := setup(t)

	body := `{"values":{"first_name":"Ada","last_name":"Lovelace","phone_number":"0123456789","email":"ada@example.com","password":"Abcdef1!"}}`
	w, env := do(t, r, http.MethodPost, "/api/v1/forms/"+form.SignupBuyer+"/check", body)
	require.Equal(t, http.StatusOK, w.Code)

	resp := checkResponse(t, env)
	assert.True(t, resp.CanSubmit)
	assert.Empty(t, resp.FieldErrors)
	require.NotNil(t, resp.Strength)
	assert.Equal(t, 5, resp.Strength.Score)
	require.NotNil(t, resp.Indicator)
	assert.Equal(t, "bg-green-500", resp.Indicator.ColorClass)
	assert.NotContains(t, w.Body.String(), "Abcdef1!")
}

func TestCheckBlocked(t *testing.T) {
	r := setup(t)

	body := `{"values":{"first_name":"Ada","last_name":"Lovelace","phone_number":"12345","email":"ada@example","password":"abcdefgh"}}`
	w, env := do(t, r, http.MethodPost, "/api/v1/forms/"+form.SignupFarmer+"/check", body)
	require.Equal(t, http.StatusOK, w.Code)

	resp := checkResponse(t, env)
	assert.False(t, resp.CanSubmit)
	assert.Equal(t, submit.BlockedInvalid, resp.Blocked)
	require.Len(t, resp.FieldErrors, 2)
	assert.Equal(t, "phone_number", resp.FieldErrors[0].Field)
	assert.Equal(t, "email", resp.FieldErrors[1].Field)

	body = `{"values":{"first_name":"Ada","last_name":"Lovelace","phone_number":"0123456789","email":"ada@example.com","password":"abcdefgh"}}`
	_, env = do(t, r, http.MethodPost, "/api/v1/forms/"+form.SignupFarmer+"/check", body)
	resp = checkResponse(t, env)
	assert.Equal(t, submit.BlockedWeakPassword, resp.Blocked)
	assert.Equal(t, "Password is not strong enough.", resp.Message)
}

func TestCheckErrors(t *testing.T) {
	r := setup(t)

	w, env := do(t, r, http.MethodPost, "/api/v1/forms/nope/check", `{"values":{}}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "form nope not found", env.Message)

	w, env = do(t, r, http.MethodPost, "/api/v1/forms/"+form.LoginBuyer+"/check", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "values", env.Errors[0].Field)

	w, env = do(t, r, http.MethodPost, "/api/v1/forms/"+form.LoginBuyer+"/check", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid request body", env.Message)
}
