package form

import (
	"fmt"

	"github.com/jwalitptl/formkit/pkg/validator"
)

const (
	LoginBuyer   = "login_buyer"
	LoginFarmer  = "login_farmer"
	SignupFarmer = "signup_farmer"
	SignupBuyer  = "signup_buyer"
)

const (
	msgLoginRejected   = "Login failed. Please try again."
	msgLoginFailure    = "An error occurred. Please try again later."
	msgSignupFailure   = "There was an error submitting the form. Please try again."
	msgSignupSucceeded = "Account created successfully!"
	msgWeakPassword    = "Password is not strong enough."
)

func loginForm(name, endpoint string) Definition {
	return Definition{
		Name:     name,
		Kind:     KindLogin,
		Endpoint: endpoint,
		Fields: []Field{
			{ID: "identifier", Label: "Email or phone number", Required: true},
			{ID: "password", Label: "Password", Required: true, Secret: true},
		},
		PasswordField:    "password",
		SuccessRedirect:  "/dashboard",
		RejectedFallback: msgLoginRejected,
		FailureMessage:   msgLoginFailure,
	}
}

func signupForm(name, endpoint string) Definition {
	return Definition{
		Name:     name,
		Kind:     KindSignup,
		Endpoint: endpoint,
		Fields: []Field{
			{ID: "first_name", Label: "First name", Required: true},
			{ID: "last_name", Label: "Last name", Required: true},
			{
				ID:           "phone_number",
				Label:        "Phone number",
				Pattern:      validator.PhonePattern,
				ErrorMessage: "Phone number must be 10 digits",
				Required:     true,
			},
			{
				ID:           "email",
				Label:        "Email",
				Pattern:      validator.EmailPattern,
				ErrorMessage: "Please enter a valid email address",
				Required:     true,
			},
			{ID: "password", Label: "Password", Required: true, Secret: true},
		},
		PasswordField:  "password",
		GatePassword:   true,
		SuccessMessage: msgSignupSucceeded,
		FailureMessage: msgSignupFailure,
		WeakPassword:   msgWeakPassword,
	}
}

// Defaults returns the built-in definitions posting to the backend's v1 auth
// routes.
func Defaults() []Definition {
	return []Definition{
		loginForm(LoginBuyer, "/api/v1/login/buyer"),
		loginForm(LoginFarmer, "/api/v1/login/farmer"),
		signupForm(SignupFarmer, "/api/v1/signup/farmer"),
		signupForm(SignupBuyer, "/api/v1/signup/buyer"),
	}
}

// DefaultCatalog builds the built-in forms, replacing endpoints named in
// overrides (form name to path).
func DefaultCatalog(overrides map[string]string) (*Catalog, error) {
	defs := Defaults()
	known := make(map[string]bool, len(defs))
	for i := range defs {
		known[defs[i].Name] = true
		if ep, ok := overrides[defs[i].Name]; ok && ep != "" {
			defs[i].Endpoint = ep
		}
	}
	for name := range overrides {
		if !known[name] {
			return nil, fmt.Errorf("endpoint override for unknown form %s", name)
		}
	}
	return NewCatalog(defs...)
}
