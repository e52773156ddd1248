// Package form describes the login and signup forms as data: which fields
// they carry, how each field is checked, where the form is posted and how the
// backend's answer is presented. Every page shares these definitions instead
// of carrying its own copy of the handlers.
package form

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jwalitptl/formkit/pkg/validator"
)

type Kind string

const (
	KindLogin  Kind = "login"
	KindSignup Kind = "signup"
)

// Field is one input of a form, identified by its element id.
type Field struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	Pattern      string `json:"pattern,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	Required     bool   `json:"required"`
	// Secret fields are never logged or echoed.
	Secret bool `json:"secret,omitempty"`

	re *regexp.Regexp
}

// ErrorElementID is the id of the element that displays this field's error.
func (f Field) ErrorElementID() string {
	return f.ID + "_error"
}

// Check validates a single value. It returns the message to display, or ""
// when the value is acceptable.
func (f Field) Check(value string) string {
	if f.Required && strings.TrimSpace(value) == "" {
		return requiredMessage(f)
	}
	if value == "" {
		return ""
	}
	if !validator.Match(f.re, value) {
		return f.ErrorMessage
	}
	return ""
}

func requiredMessage(f Field) string {
	if f.Label == "" {
		return "Field is required"
	}
	return f.Label + " is required"
}

// Definition is a complete form.
type Definition struct {
	Name     string  `json:"name"`
	Kind     Kind    `json:"kind"`
	Endpoint string  `json:"endpoint"`
	Fields   []Field `json:"fields"`
	// PasswordField names the field scored by the strength evaluator.
	PasswordField string `json:"password_field,omitempty"`
	// GatePassword blocks submission when the password is below threshold.
	GatePassword bool `json:"gate_password"`

	SuccessRedirect  string `json:"success_redirect,omitempty"`
	SuccessMessage   string `json:"success_message,omitempty"`
	RejectedFallback string `json:"-"`
	FailureMessage   string `json:"-"`
	WeakPassword     string `json:"-"`
}

// Field looks up a field by id.
func (d *Definition) Field(id string) (Field, bool) {
	for _, f := range d.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// Validate checks every field and returns one error per failing field in
// declaration order. Values for undeclared fields are ignored.
func (d *Definition) Validate(values map[string]string) validator.FieldErrors {
	var errs validator.FieldErrors
	for _, f := range d.Fields {
		if msg := f.Check(values[f.ID]); msg != "" {
			errs = append(errs, validator.FieldError{Field: f.ID, Message: msg})
		}
	}
	return errs
}

// Payload returns the request body for values: declared fields only, in a
// fresh map.
func (d *Definition) Payload(values map[string]string) map[string]string {
	out := make(map[string]string, len(d.Fields))
	for _, f := range d.Fields {
		out[f.ID] = values[f.ID]
	}
	return out
}

// Redacted returns values with secret fields masked, for logging.
func (d *Definition) Redacted(values map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(d.Fields))
	for _, f := range d.Fields {
		v, ok := values[f.ID]
		if !ok {
			continue
		}
		if f.Secret {
			out[f.ID] = "[redacted]"
			continue
		}
		out[f.ID] = v
	}
	return out
}

func (d *Definition) compile() error {
	if d.Name == "" {
		return fmt.Errorf("form without name")
	}
	if d.Endpoint == "" {
		return fmt.Errorf("form %s: endpoint is required", d.Name)
	}
	seen := make(map[string]bool, len(d.Fields))
	for i := range d.Fields {
		f := &d.Fields[i]
		if f.ID == "" {
			return fmt.Errorf("form %s: field %d has no id", d.Name, i)
		}
		if seen[f.ID] {
			return fmt.Errorf("form %s: duplicate field %s", d.Name, f.ID)
		}
		seen[f.ID] = true

		re, err := validator.CompilePattern(f.Pattern)
		if err != nil {
			return fmt.Errorf("form %s: field %s: %w", d.Name, f.ID, err)
		}
		f.re = re
	}
	if d.PasswordField != "" && !seen[d.PasswordField] {
		return fmt.Errorf("form %s: password field %s is not declared", d.Name, d.PasswordField)
	}
	if d.GatePassword && d.PasswordField == "" {
		return fmt.Errorf("form %s: password gate without password field", d.Name)
	}
	return nil
}

// Catalog is an immutable set of compiled form definitions.
type Catalog struct {
	forms map[string]*Definition
}

// NewCatalog compiles defs. Invalid patterns and inconsistent definitions are
// reported here so that validation itself can never fail.
func NewCatalog(defs ...Definition) (*Catalog, error) {
	c := &Catalog{forms: make(map[string]*Definition, len(defs))}
	for _, def := range defs {
		d := def
		d.Fields = append([]Field(nil), def.Fields...)
		if err := d.compile(); err != nil {
			return nil, err
		}
		if _, dup := c.forms[d.Name]; dup {
			return nil, fmt.Errorf("duplicate form %s", d.Name)
		}
		c.forms[d.Name] = &d
	}
	return c, nil
}

// Get returns the definition for name.
func (c *Catalog) Get(name string) (*Definition, bool) {
	d, ok := c.forms[name]
	return d, ok
}

// Names lists the form names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.forms))
	for n := range c.forms {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// List returns the definitions sorted by name.
func (c *Catalog) List() []*Definition {
	out := make([]*Definition, 0, len(c.forms))
	for _, n := range c.Names() {
		out = append(out, c.forms[n])
	}
	return out
}
