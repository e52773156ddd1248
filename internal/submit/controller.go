package submit

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/formkit/internal/form"
	"github.com/jwalitptl/formkit/pkg/circuitbreaker"
	"github.com/jwalitptl/formkit/pkg/errors"
	"github.com/jwalitptl/formkit/pkg/logger"
	"github.com/jwalitptl/formkit/pkg/metrics"
	"github.com/jwalitptl/formkit/pkg/strength"
)

const (
	// HeaderRequestID carries the request id to the backend.
	HeaderRequestID = "X-Request-ID"
	maxBodyBytes    = 1 << 20
)

// Doer sends HTTP requests; *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config tunes the backend client, throttle and breaker.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RateLimit is submissions per second across the controller; zero or
	// less disables throttling.
	RateLimit float64
	RateBurst int
	Breaker   circuitbreaker.Settings
}

// Option customizes a Controller.
type Option func(*Controller)

// WithDoer replaces the HTTP client used for submissions.
func WithDoer(d Doer) Option {
	return func(c *Controller) { c.doer = d }
}

// Controller validates, gates and submits forms. It is safe for concurrent
// use.
type Controller struct {
	catalog *form.Catalog
	baseURL string
	doer    Doer
	limiter *rate.Limiter
	breaker *circuitbreaker.CircuitBreaker
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewController builds a Controller over catalog. A nil logger discards output.
func NewController(catalog *form.Catalog, cfg Config, log *logger.Logger, m *metrics.Metrics, opts ...Option) *Controller {
	if log == nil {
		log = logger.Nop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Controller{
		catalog: catalog,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		doer:    &http.Client{Timeout: timeout},
		log:     log,
		metrics: m,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	bs := cfg.Breaker
	if bs.Name == "" {
		bs.Name = "backend"
	}
	if bs.IsFailure == nil {
		bs.IsFailure = isBackendFailure
	}
	onChange := bs.OnStateChange
	bs.OnStateChange = func(name string, from, to circuitbreaker.State) {
		c.log.Warn("backend breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		c.metrics.SetBreakerState(name, float64(to))
		if onChange != nil {
			onChange(name, from, to)
		}
	}
	c.breaker = circuitbreaker.NewCircuitBreaker(bs)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Catalog returns the forms this controller submits.
func (c *Controller) Catalog() *form.Catalog {
	return c.catalog
}

// Ready fails while the backend breaker is open.
func (c *Controller) Ready() error {
	if c.breaker.State() == circuitbreaker.StateOpen {
		return errors.Unavailable("backend circuit open", circuitbreaker.ErrOpen)
	}
	return nil
}

// Evaluate scores a password and records the evaluation.
func (c *Controller) Evaluate(password string) strength.Result {
	r := strength.Evaluate(password)
	c.metrics.ObserveEvaluation(r.Label)
	return r
}

// Check runs every client-side step of a submission without sending it.
func (c *Controller) Check(formName string, values map[string]string) (CheckResult, error) {
	def, ok := c.catalog.Get(formName)
	if !ok {
		return CheckResult{}, errors.NotFound("form "+formName, nil)
	}
	return c.check(def, values), nil
}

func (c *Controller) check(def *form.Definition, values map[string]string) CheckResult {
	res := CheckResult{Form: def.Name, FieldErrors: def.Validate(values)}
	if def.PasswordField != "" {
		r := c.Evaluate(values[def.PasswordField])
		res.Strength = &r
	}
	switch {
	case len(res.FieldErrors) > 0:
		res.Blocked = BlockedInvalid
	case def.GatePassword && !res.Strength.MeetsThreshold:
		res.Blocked = BlockedWeakPassword
		res.Message = def.WeakPassword
	}
	return res
}

// Submit validates values for formName and, when they pass, posts them to
// the backend. Outcomes the user should see are returned as an Outcome with a
// nil error; the error is reserved for unknown forms, throttling and a
// cancelled context.
func (c *Controller) Submit(ctx context.Context, formName string, values map[string]string) (Outcome, error) {
	def, ok := c.catalog.Get(formName)
	if !ok {
		return Outcome{}, errors.NotFound("form "+formName, nil)
	}

	chk := c.check(def, values)
	switch chk.Blocked {
	case BlockedInvalid:
		c.metrics.ObserveSubmission(def.Name, string(OutcomeInvalid))
		c.log.Debug("form has invalid fields", "form", def.Name, "fields", len(chk.FieldErrors))
		return Outcome{Kind: OutcomeInvalid, Form: def.Name, FieldErrors: chk.FieldErrors, Strength: chk.Strength}, nil
	case BlockedWeakPassword:
		c.metrics.ObserveGateRejection(def.Name)
		c.metrics.ObserveSubmission(def.Name, string(OutcomeError))
		c.log.Info("submission blocked by password strength", "form", def.Name, "score", chk.Strength.Score)
		return Outcome{Kind: OutcomeError, Form: def.Name, Message: chk.Message, Strength: chk.Strength}, nil
	}

	if c.limiter != nil && !c.limiter.Allow() {
		c.metrics.ObserveSubmission(def.Name, "throttled")
		return Outcome{}, errors.RateLimited(fmt.Errorf("form %s", def.Name))
	}

	start := time.Now()
	resp, err := c.send(ctx, def, values)
	c.metrics.ObserveLatency(def.Name, time.Since(start).Seconds())

	if ctxErr := ctx.Err(); ctxErr != nil {
		c.log.Info("submission cancelled", "form", def.Name)
		return Outcome{}, ctxErr
	}

	out := present(def, resp, err)
	out.Strength = chk.Strength
	c.metrics.ObserveSubmission(def.Name, string(out.Kind))

	if err != nil {
		c.log.Error(err, "form submission failed", "form", def.Name)
	} else {
		c.log.Info("form submitted", "form", def.Name, "status", resp.status, "outcome", string(out.Kind),
			"latency_ms", time.Since(start).Milliseconds())
	}
	c.log.WithFields(def.Redacted(values)).Debug("submitted values", "form", def.Name)
	return out, nil
}

type backendResponse struct {
	status int
	body   []byte
}

// statusError marks a 5xx answer so the breaker counts it; the response is
// still presented to the user.
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("backend returned %d", e.status)
}

func isBackendFailure(err error) bool {
	return !stderrors.Is(err, context.Canceled)
}

func (c *Controller) send(ctx context.Context, def *form.Definition, values map[string]string) (*backendResponse, error) {
	body, err := json.Marshal(def.Payload(values))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", def.Name, err)
	}

	var resp *backendResponse
	err = c.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+def.Endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set(HeaderRequestID, uuid.New().String())

		httpResp, err := c.doer.Do(req)
		if err != nil {
			return err
		}
		defer httpResp.Body.Close()

		b, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		resp = &backendResponse{status: httpResp.StatusCode, body: b}
		if httpResp.StatusCode >= http.StatusInternalServerError {
			return &statusError{status: httpResp.StatusCode}
		}
		return nil
	})

	var se *statusError
	if stderrors.As(err, &se) {
		return resp, nil
	}
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", def.Endpoint, err)
	}
	return resp, nil
}
