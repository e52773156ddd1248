package submit

import (
	"encoding/json"
	"net/http"

	"github.com/jwalitptl/formkit/internal/form"
	"github.com/jwalitptl/formkit/pkg/strength"
	"github.com/jwalitptl/formkit/pkg/validator"
)

// OutcomeKind tells the page how to present an Outcome.
type OutcomeKind string

const (
	// OutcomeRedirect: navigate to RedirectTo.
	OutcomeRedirect OutcomeKind = "redirect"
	// OutcomeMessage: show Message as a confirmation.
	OutcomeMessage OutcomeKind = "message"
	// OutcomeError: show Message in the form's error area.
	OutcomeError OutcomeKind = "error"
	// OutcomeInvalid: show FieldErrors next to their fields.
	OutcomeInvalid OutcomeKind = "invalid"
)

// Outcome is what the page should do after a submit attempt.
type Outcome struct {
	Kind        OutcomeKind           `json:"kind"`
	Form        string                `json:"form"`
	RedirectTo  string                `json:"redirect_to,omitempty"`
	Message     string                `json:"message,omitempty"`
	Status      int                   `json:"status,omitempty"`
	FieldErrors validator.FieldErrors `json:"field_errors,omitempty"`
	Strength    *strength.Result      `json:"strength,omitempty"`
}

// Blocked names why a form may not be submitted yet.
type Blocked string

const (
	BlockedNone         Blocked = ""
	BlockedInvalid      Blocked = "invalid"
	BlockedWeakPassword Blocked = "weak_password"
)

// CheckResult is the client-side verdict on a form before submission.
type CheckResult struct {
	Form        string                `json:"form"`
	FieldErrors validator.FieldErrors `json:"field_errors,omitempty"`
	Strength    *strength.Result      `json:"strength,omitempty"`
	Blocked     Blocked               `json:"blocked,omitempty"`
	Message     string                `json:"message,omitempty"`
}

// CanSubmit reports whether nothing blocks the submission.
func (r CheckResult) CanSubmit() bool {
	return r.Blocked == BlockedNone
}

func succeeded(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}

// present maps a backend answer, or a transport failure, to an Outcome.
func present(def *form.Definition, resp *backendResponse, err error) Outcome {
	out := Outcome{Form: def.Name, Kind: OutcomeError, Message: def.FailureMessage}
	if err != nil || resp == nil {
		return out
	}
	out.Status = resp.status

	if def.Kind == form.KindLogin {
		// login pages decode the body before looking at the status
		var body interface{}
		if jerr := json.Unmarshal(resp.body, &body); jerr != nil {
			return out
		}
		if succeeded(resp.status) {
			out.Kind = OutcomeRedirect
			out.RedirectTo = def.SuccessRedirect
			out.Message = ""
			return out
		}
		out.Message = def.RejectedFallback
		if obj, ok := body.(map[string]interface{}); ok {
			if msg, ok := obj["error"].(string); ok && msg != "" {
				out.Message = msg
			}
		}
		return out
	}

	if succeeded(resp.status) {
		out.Kind = OutcomeMessage
		out.Message = def.SuccessMessage
	}
	return out
}
