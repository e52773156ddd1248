package submit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/formkit/internal/form"
	"github.com/jwalitptl/formkit/pkg/circuitbreaker"
	apperrors "github.com/jwalitptl/formkit/pkg/errors"
	"github.com/jwalitptl/formkit/pkg/metrics"
)

type backend struct {
	srv   *httptest.Server
	calls atomic.Int32
	last  atomic.Value
}

func newBackend(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *backend {
	t.Helper()
	b := &backend{}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.calls.Add(1)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.last.Store(body)
		handler(w, r)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) lastBody() map[string]string {
	v, _ := b.last.Load().(map[string]string)
	return v
}

func jsonReply(status int, body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func newController(t *testing.T, baseURL string, cfg Config) (*Controller, *metrics.Metrics) {
	t.Helper()
	catalog, err := form.DefaultCatalog(nil)
	require.NoError(t, err)
	cfg.BaseURL = baseURL
	m := metrics.NewMetrics("formkit", "test", prometheus.NewRegistry())
	return NewController(catalog, cfg, nil, m), m
}

func signupValues(password string) map[string]string {
	return map[string]string{
		"first_name":   "Meera",
		"last_name":    "Patel",
		"phone_number": "9123456780",
		"email":        "meera@example.com",
		"password":     password,
	}
}

func loginValues() map[string]string {
	return map[string]string{"identifier": "meera@example.com", "password": "whatever"}
}

func TestLoginSuccessRedirects(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/login/buyer", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get(HeaderRequestID))
		jsonReply(http.StatusOK, `{"success": true, "token": "t"}`)(w, r)
	})
	c, m := newController(t, b.srv.URL, Config{})

	out, err := c.Submit(context.Background(), form.LoginBuyer, loginValues())
	require.NoError(t, err)
	assert.Equal(t, OutcomeRedirect, out.Kind)
	assert.Equal(t, "/dashboard", out.RedirectTo)
	assert.Equal(t, http.StatusOK, out.Status)
	assert.Equal(t, loginValues(), b.lastBody())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues(form.LoginBuyer, "redirect")))
}

func TestLoginRejectedShowsBackendError(t *testing.T) {
	b := newBackend(t, jsonReply(http.StatusUnauthorized, `{"error": "Invalid credentials"}`))
	c, _ := newController(t, b.srv.URL, Config{})

	out, err := c.Submit(context.Background(), form.LoginFarmer, loginValues())
	require.NoError(t, err)
	assert.Equal(t, OutcomeError, out.Kind)
	assert.Equal(t, "Invalid credentials", out.Message)
	assert.Equal(t, http.StatusUnauthorized, out.Status)
}

func TestLoginRejectedWithoutErrorUsesFallback(t *testing.T) {
	b := newBackend(t, jsonReply(http.StatusBadRequest, `{"message": "nope"}`))
	c, _ := newController(t, b.srv.URL, Config{})

	out, err := c.Submit(context.Background(), form.LoginBuyer, loginValues())
	require.NoError(t, err)
	assert.Equal(t, "Login failed. Please try again.", out.Message)
}

func TestLoginAcceptsAnyJSONBody(t *testing.T) {
	for _, body := range []string{`[]`, `"ok"`, `null`, `42`} {
		b := newBackend(t, jsonReply(http.StatusOK, body))
		c, _ := newController(t, b.srv.URL, Config{})

		out, err := c.Submit(context.Background(), form.LoginBuyer, loginValues())
		require.NoError(t, err)
		assert.Equal(t, OutcomeRedirect, out.Kind, body)
		assert.Equal(t, "/dashboard", out.RedirectTo, body)
	}

	b := newBackend(t, jsonReply(http.StatusForbidden, `["blocked"]`))
	c, _ := newController(t, b.srv.URL, Config{})
	out, err := c.Submit(context.Background(), form.LoginBuyer, loginValues())
	require.NoError(t, err)
	assert.Equal(t, OutcomeError, out.Kind)
	assert.Equal(t, "Login failed. Please try again.", out.Message)
}

func TestLoginUndecodableBodyIsFailure(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>ok</html>"))
	})
	c, _ := newController(t, b.srv.URL, Config{})

	out, err := c.Submit(context.Background(), form.LoginBuyer, loginValues())
	require.NoError(t, err)
	assert.Equal(t, OutcomeError, out.Kind)
	assert.Equal(t, "An error occurred. Please try again later.", out.Message)
}

func TestLoginTransportFailure(t *testing.T) {
	b := newBackend(t, jsonReply(http.StatusOK, `{}`))
	url := b.srv.URL
	b.srv.Close()
	c, _ := newController(t, url, Config{})

	out, err := c.Submit(context.Background(), form.LoginBuyer, loginValues())
	require.NoError(t, err)
	assert.Equal(t, OutcomeError, out.Kind)
	assert.Equal(t, "An error occurred. Please try again later.", out.Message)
	assert.Zero(t, out.Status)
}

func TestSignupSuccess(t *testing.T) {
	b := newBackend(t, jsonReply(http.StatusCreated, `{"success": "farmer account created sucessfully"}`))
	c, _ := newController(t, b.srv.URL, Config{})

	out, err := c.Submit(context.Background(), form.SignupFarmer, signupValues("Abcdef1!"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeMessage, out.Kind)
	assert.Equal(t, "Account created successfully!", out.Message)
	require.NotNil(t, out.Strength)
	assert.Equal(t, 5, out.Strength.Score)
	assert.Equal(t, signupValues("Abcdef1!"), b.lastBody())
}

func TestSignupFailureIgnoresBackendMessage(t *testing.T) {
	b := newBackend(t, jsonReply(http.StatusBadRequest, `{"error": "email or phone number exists"}`))
	c, _ := newController(t, b.srv.URL, Config{})

	out, err := c.Submit(context.Background(), form.SignupBuyer, signupValues("Abcdef1!"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeError, out.Kind)
	assert.Equal(t, "There was an error submitting the form. Please try again.", out.Message)
	assert.Equal(t, http.StatusBadRequest, out.Status)
}

func TestSignupWeakPasswordNeverSent(t *testing.T) {
	b := newBackend(t, jsonReply(http.StatusCreated, `{}`))
	c, m := newController(t, b.srv.URL, Config{})

	out, err := c.Submit(context.Background(), form.SignupFarmer, signupValues("abcdefgh"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeError, out.Kind)
	assert.Equal(t, "Password is not strong enough.", out.Message)
	assert.Equal(t, 2, out.Strength.Score)
	assert.Zero(t, b.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GateRejections.WithLabelValues(form.SignupFarmer)))
}

func TestSignupShortButStrongPasswordIsSent(t *testing.T) {
	b := newBackend(t, jsonReply(http.StatusCreated, `{}`))
	c, _ := newController(t, b.srv.URL, Config{})

	out, err := c.Submit(context.Background(), form.SignupFarmer, signupValues("Abc1!"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeMessage, out.Kind)
	assert.EqualValues(t, 1, b.calls.Load())
}

func TestInvalidFieldsNeverSent(t *testing.T) {
	b := newBackend(t, jsonReply(http.StatusCreated, `{}`))
	c, _ := newController(t, b.srv.URL, Config{})

	values := signupValues("Abcdef1!")
	values["phone_number"] = "12345"
	out, err := c.Submit(context.Background(), form.SignupFarmer, values)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalid, out.Kind)
	require.Len(t, out.FieldErrors, 1)
	assert.Equal(t, "phone_number", out.FieldErrors[0].Field)
	assert.Zero(t, b.calls.Load())
}

func TestUnknownForm(t *testing.T) {
	c, _ := newController(t, "http://127.0.0.1:1", Config{})

	_, err := c.Submit(context.Background(), "signup_admin", nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))

	_, err = c.Check("signup_admin", nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}

func TestThrottle(t *testing.T) {
	b := newBackend(t, jsonReply(http.StatusOK, `{}`))
	c, _ := newController(t, b.srv.URL, Config{RateLimit: 0.001, RateBurst: 1})

	_, err := c.Submit(context.Background(), form.LoginBuyer, loginValues())
	require.NoError(t, err)

	_, err = c.Submit(context.Background(), form.LoginBuyer, loginValues())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrRateLimited))
	assert.EqualValues(t, 1, b.calls.Load())
}

func TestCancelledContext(t *testing.T) {
	release := make(chan struct{})
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)
	c, _ := newController(t, b.srv.URL, Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Submit(ctx, form.LoginBuyer, loginValues())
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	b := newBackend(t, jsonReply(http.StatusInternalServerError, `{"error": "internal server error"}`))
	c, m := newController(t, b.srv.URL, Config{
		Breaker: circuitbreaker.Settings{MaxFailures: 2, Timeout: time.Minute},
	})

	for i := 0; i < 2; i++ {
		out, err := c.Submit(context.Background(), form.LoginBuyer, loginValues())
		require.NoError(t, err)
		assert.Equal(t, "internal server error", out.Message)
		assert.Equal(t, http.StatusInternalServerError, out.Status)
	}

	out, err := c.Submit(context.Background(), form.LoginBuyer, loginValues())
	require.NoError(t, err)
	assert.Equal(t, OutcomeError, out.Kind)
	assert.Equal(t, "An error occurred. Please try again later.", out.Message)
	assert.EqualValues(t, 2, b.calls.Load())
	assert.Equal(t, float64(circuitbreaker.StateOpen), testutil.ToFloat64(m.BreakerState.WithLabelValues("backend")))

	err = c.Ready()
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrUnavailable))
}

func TestRejectionsDoNotTripBreaker(t *testing.T) {
	b := newBackend(t, jsonReply(http.StatusUnauthorized, `{"error": "Invalid credentials"}`))
	c, _ := newController(t, b.srv.URL, Config{
		Breaker: circuitbreaker.Settings{MaxFailures: 1, Timeout: time.Minute},
	})

	for i := 0; i < 3; i++ {
		out, err := c.Submit(context.Background(), form.LoginBuyer, loginValues())
		require.NoError(t, err)
		assert.Equal(t, "Invalid credentials", out.Message)
	}
	assert.EqualValues(t, 3, b.calls.Load())
	assert.NoError(t, c.Ready())
}

func TestCheck(t *testing.T) {
	c, m := newController(t, "http://127.0.0.1:1", Config{})

	res, err := c.Check(form.SignupBuyer, signupValues("abc"))
	require.NoError(t, err)
	assert.False(t, res.CanSubmit())
	assert.Equal(t, BlockedWeakPassword, res.Blocked)
	assert.Equal(t, "Password is not strong enough.", res.Message)

	res, err = c.Check(form.SignupBuyer, signupValues("Abcdef1!"))
	require.NoError(t, err)
	assert.True(t, res.CanSubmit())
	assert.Equal(t, "Very Strong", res.Strength.Label)

	res, err = c.Check(form.LoginBuyer, map[string]string{"identifier": "x"})
	require.NoError(t, err)
	assert.Equal(t, BlockedInvalid, res.Blocked)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Evaluations.WithLabelValues("Very Strong")))
}
