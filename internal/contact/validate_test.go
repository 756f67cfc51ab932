package contact

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		in      Submission
		valid   bool
		errors  FieldErrors
		missing bool
	}{
		{
			name:   "valid",
			in:     Submission{Name: "Alice", Email: "alice@example.com", Message: "Hi"},
			valid:  true,
			errors: FieldErrors{FieldName: "", FieldEmail: "", FieldMessage: ""},
		},
		{
			name:    "whitespace message",
			in:      Submission{Name: "Alice", Email: "alice@example.com", Message: "   "},
			errors:  FieldErrors{FieldName: "", FieldEmail: "", FieldMessage: MsgMessageRequired},
			missing: true,
		},
		{
			name:   "no dot in domain",
			in:     Submission{Name: "Bob", Email: "bob@example", Message: "Hello"},
			errors: FieldErrors{FieldName: "", FieldEmail: MsgEmailInvalid, FieldMessage: ""},
		},
		{
			name:    "all empty",
			in:      Submission{},
			errors:  FieldErrors{FieldName: MsgNameRequired, FieldEmail: MsgEmailRequired, FieldMessage: MsgMessageRequired},
			missing: true,
		},
		{
			name:   "space inside email",
			in:     Submission{Name: "Bob", Email: "bo b@example.com", Message: "Hello"},
			errors: FieldErrors{FieldName: "", FieldEmail: MsgEmailInvalid, FieldMessage: ""},
		},
		{
			name:   "non-breaking space inside email",
			in:     Submission{Name: "Bob", Email: "bo b@example.com", Message: "Hello"},
			errors: FieldErrors{FieldName: "", FieldEmail: MsgEmailInvalid, FieldMessage: ""},
		},
		{
			name:   "two at signs",
			in:     Submission{Name: "Bob", Email: "a@b@c.com", Message: "Hello"},
			errors: FieldErrors{FieldName: "", FieldEmail: MsgEmailInvalid, FieldMessage: ""},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := ValidateSubmission(tc.in)
			assert.Equal(t, tc.valid, res.Valid)
			assert.Equal(t, tc.errors, res.Errors)
			assert.Equal(t, tc.missing, res.MissingRequired())
		})
	}
}

func TestValidateField(t *testing.T) {
	assert.Equal(t, MsgNameRequired, ValidateField(FieldName, " \t"))
	assert.Equal(t, "", ValidateField(FieldName, "Al"))
	assert.Equal(t, MsgEmailRequired, ValidateField(FieldEmail, ""))
	assert.Equal(t, MsgEmailInvalid, ValidateField(FieldEmail, "nope"))
	assert.Equal(t, "", ValidateField(FieldEmail, "a@b.co"))
	assert.Equal(t, MsgEmailInvalid, ValidateField(FieldEmail, "a@b.co "), "the pattern runs on the untrimmed value")
	assert.Equal(t, MsgEmailInvalid, ValidateField(FieldEmail, " a@b.co"))
	assert.Equal(t, MsgMessageRequired, ValidateField(FieldMessage, "\n"))
	assert.Equal(t, "", ValidateField("phone", ""))
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Errors: FieldErrors{FieldName: MsgNameRequired, FieldEmail: "", FieldMessage: MsgMessageRequired}}
	assert.Equal(t, "invalid submission: message: Message is required; name: Name is required", err.Error())
	assert.True(t, err.Missing())
}

func TestValidateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	word := gen.AlphaString().SuchThat(func(s string) bool { return s != "" })
	blank := gen.SliceOf(gen.OneConstOf(" ", "\t", "\n", "\r")).Map(func(parts []string) string {
		return strings.Join(parts, "")
	})

	properties.Property("well-formed submissions are valid", prop.ForAll(
		func(name, local, domain, tld, message string) bool {
			res := Validate(name, local+"@"+domain+"."+tld, message)
			return res.Valid && !res.Errors.Any()
		},
		word, word, word, word, word,
	))

	properties.Property("whitespace-only name is rejected", prop.ForAll(
		func(name string) bool {
			res := Validate(name, "a@b.co", "hello")
			return !res.Valid && res.Errors[FieldName] == MsgNameRequired &&
				res.Errors[FieldEmail] == "" && res.Errors[FieldMessage] == ""
		},
		blank,
	))

	properties.Property("emails without an at sign are rejected", prop.ForAll(
		func(email string) bool {
			return ValidateField(FieldEmail, email) == MsgEmailInvalid
		},
		word,
	))

	properties.Property("field validation agrees with whole validation", prop.ForAll(
		func(name, email, message string) bool {
			res := Validate(name, email, message)
			return res.Errors[FieldName] == ValidateField(FieldName, name) &&
				res.Errors[FieldEmail] == ValidateField(FieldEmail, email) &&
				res.Errors[FieldMessage] == ValidateField(FieldMessage, message)
		},
		gen.AnyString(), gen.AnyString(), gen.AnyString(),
	))

	properties.TestingRun(t)
}
