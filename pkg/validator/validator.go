package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// EmailPattern and PhonePattern are the expressions used by ValidEmail and
// ValidPhone, exported so forms can carry them as field patterns.
const (
	EmailPattern = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	PhonePattern = `^[0-9]{10}$`
)

var (
	emailPattern = regexp.MustCompile(EmailPattern)
	phonePattern = regexp.MustCompile(PhonePattern)
)

// FieldError describes one failed field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag,omitempty"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FieldErrors is returned by Validate when one or more fields fail.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return strings.Join(msgs, "; ")
}

var defaultMessages = map[string]string{
	"required":    "Field is required",
	"email":       "Invalid email format",
	"min":         "Value is too short",
	"max":         "Value is too long",
	"gte":         "Value is too small",
	"http_url":    "Must be an absolute http or https URL",
	"required_if": "Field is required",
}

// Validator validates tagged structs using go-playground/validator.
type Validator struct {
	v        *validator.Validate
	messages map[string]string
}

// New builds a Validator. Field names in errors follow the json tag, then the
// mapstructure tag.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	Register(v)

	messages := make(map[string]string, len(defaultMessages))
	for k, m := range defaultMessages {
		messages[k] = m
	}
	return &Validator{v: v, messages: messages}
}

// Register installs the field naming on v. It is used both by New and to
// configure gin's binding engine.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "mapstructure"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return fld.Name
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
}

// Message returns the user-facing message for a validation tag.
func (v *Validator) Message(tag string) string {
	if m, ok := v.messages[tag]; ok {
		return m
	}
	return fmt.Sprintf("failed on %s", tag)
}

// Validate checks obj against its validate tags. Failures are returned as
// FieldErrors; any other error is returned unchanged.
func (v *Validator) Validate(obj interface{}) error {
	err := v.v.Struct(obj)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	return v.Translate(verrs)
}

// Translate converts validator errors into FieldErrors. Nested fields are
// named by their path below the root struct, e.g. "server.port".
func (v *Validator) Translate(verrs validator.ValidationErrors) FieldErrors {
	out := make(FieldErrors, 0, len(verrs))
	for _, e := range verrs {
		field := e.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		out = append(out, FieldError{
			Field:   field,
			Tag:     e.Tag(),
			Message: v.Message(e.Tag()),
		})
	}
	return out
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidPhone reports whether s is exactly ten ASCII digits.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// CompilePattern compiles a field pattern. An empty pattern compiles to nil,
// which accepts every value.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return re, nil
}

// MatchPattern tests value against pattern without implicit anchoring. An
// empty pattern accepts everything; an invalid pattern rejects everything.
func MatchPattern(pattern, value string) bool {
	re, err := CompilePattern(pattern)
	if err != nil {
		return false
	}
	return Match(re, value)
}

// Match tests value against a compiled pattern; nil accepts everything.
func Match(re *regexp.Regexp, value string) bool {
	if re == nil {
		return true
	}
	return re.MatchString(value)
}
