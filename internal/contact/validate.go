// Package contact validates, composes and dispatches contact-form submissions.
// The same validation rules back the browser-facing form and the API endpoint.
package contact

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field names as they appear in JSON bodies and form posts.
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldMessage = "message"
)

// Fields lists every submission field in display order.
var Fields = []string{FieldName, FieldEmail, FieldMessage}

// Validation messages shown next to each field.
const (
	MsgNameRequired    = "Name is required"
	MsgEmailRequired   = "Email is required"
	MsgEmailInvalid    = "Please enter a valid email address"
	MsgMessageRequired = "Message is required"
)

const (
	tagRequired = "trimmed_required"
	tagEmail    = "contact_email"
)

// JavaScript's \s also covers \v, the Unicode separators and the BOM; RE2's
// does not, so the class is spelled out.
var emailPattern = regexp.MustCompile(`^[^\s\v\p{Z}\x{FEFF}@]+@[^\s\v\p{Z}\x{FEFF}@]+\.[^\s\v\p{Z}\x{FEFF}@]+$`)

// Submission is one contact-form payload.
type Submission struct {
	Name    string `json:"name" form:"name" validate:"trimmed_required"`
	Email   string `json:"email" form:"email" validate:"trimmed_required,contact_email"`
	Message string `json:"message" form:"message" validate:"trimmed_required"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (s Submission) Trimmed() Submission {
	return Submission{
		Name:    strings.TrimSpace(s.Name),
		Email:   strings.TrimSpace(s.Email),
		Message: strings.TrimSpace(s.Message),
	}
}

// Value returns the value of the named field.
func (s Submission) Value(field string) string {
	switch field {
	case FieldName:
		return s.Name
	case FieldEmail:
		return s.Email
	case FieldMessage:
		return s.Message
	}
	return ""
}

// FieldErrors maps each field to its message; a passing field maps to "".
type FieldErrors map[string]string

// Any reports whether at least one field failed.
func (e FieldErrors) Any() bool {
	for _, msg := range e {
		if msg != "" {
			return true
		}
	}
	return false
}

// Result is the outcome of validating a whole submission.
type Result struct {
	Valid  bool
	Errors FieldErrors
}

// MissingRequired reports whether any field failed its presence check.
func (r Result) MissingRequired() bool {
	return r.Errors[FieldName] == MsgNameRequired ||
		r.Errors[FieldEmail] == MsgEmailRequired ||
		r.Errors[FieldMessage] == MsgMessageRequired
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation(tagRequired, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation(tagEmail, func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

var fieldRules = map[string]string{
	FieldName:    tagRequired,
	FieldEmail:   tagRequired + "," + tagEmail,
	FieldMessage: tagRequired,
}

// Validate checks all three fields. It is pure and never fails on input.
func Validate(name, email, message string) Result {
	res := Result{Errors: FieldErrors{FieldName: "", FieldEmail: "", FieldMessage: ""}}

	err := validate.Struct(Submission{Name: name, Email: email, Message: message})
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			res.Errors[fe.Field()] = messageFor(fe.Field(), fe.Tag())
		}
	}

	res.Valid = !res.Errors.Any()
	return res
}

// ValidateSubmission is Validate over a Submission.
func ValidateSubmission(s Submission) Result {
	return Validate(s.Name, s.Email, s.Message)
}

// ValidateField checks a single field and returns its message or "".
func ValidateField(field, value string) string {
	rules, ok := fieldRules[field]
	if !ok {
		return ""
	}

	err := validate.Var(value, rules)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return messageFor(field, verrs[0].Tag())
	}
	return ""
}

func messageFor(field, tag string) string {
	if tag == tagEmail {
		return MsgEmailInvalid
	}
	switch field {
	case FieldName:
		return MsgNameRequired
	case FieldEmail:
		return MsgEmailRequired
	default:
		return MsgMessageRequired
	}
}

// ValidationError carries the per-field messages of a rejected submission.
type ValidationError struct {
	Errors FieldErrors
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for field, msg := range e.Errors {
		if msg != "" {
			fields = append(fields, field+": "+msg)
		}
	}
	sort.Strings(fields)
	return "invalid submission: " + strings.Join(fields, "; ")
}

// Missing reports whether a presence check failed.
func (e *ValidationError) Missing() bool {
	return Result{Errors: e.Errors}.MissingRequired()
}
