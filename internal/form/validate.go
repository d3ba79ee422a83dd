// internal/form/validate.go
//
// Adept Sign-in – Forms subsystem: field validation.
//
// Context
//   Validate turns the raw email and password values into a FieldErrors set.
//   Both fields are always checked, so the user sees every problem at once.
//   The same function runs in the client controller and again on the
//   development endpoint, keeping the two sides in agreement.
//
// Workflow
//   •  The values are copied into loginInput, whose validate tags carry the
//      rules.  go-playground/validator stops at the first failing tag per
//      field and moves on to the next field.
//   •  Each validator.FieldError is translated into the fixed user-facing
//      message for that field and tag.
//
// Notes
//   •  loose_email is a shape check (“x@y.z” with non-space runs), not an RFC
//      5322 parser.  Addresses such as “a@b.c” pass, quoted local parts with
//      spaces fail.  This is a known weak point and deliberately left loose.
//   •  RE2's \S covers ASCII whitespace only, so the runs are spelled out
//      as "not \s, not a Unicode separator (Z), not NEL or BOM".  A no-break
//      or ideographic space fails the check like an ASCII one.
//   •  min=6 counts runes, not bytes.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// User-facing messages.
const (
	MsgEmailRequired    = "Email is required"
	MsgEmailInvalid     = "Please enter a valid email"
	MsgPasswordRequired = "Password is required"
	MsgPasswordTooShort = "Password must be at least 6 characters"
)

// MinPasswordLength is the minimum password length in characters.
const MinPasswordLength = 6

// nonSpace is one rune that is not whitespace in any script.
const nonSpace = `[^\s\p{Z}\x{85}\x{FEFF}]`

var looseEmail = regexp.MustCompile(`^` + nonSpace + `+@` + nonSpace + `+\.` + nonSpace + `+$`)

// loginInput mirrors the form fields for tag-driven validation.
type loginInput struct {
	Email    string `json:"email"    validate:"notblank,loose_email"`
	Password string `json:"password" validate:"required,min=6"`
}

// messages maps field → failing tag → message.
var messages = map[Field]map[string]string{
	FieldEmail: {
		"notblank":    MsgEmailRequired,
		"loose_email": MsgEmailInvalid,
	},
	FieldPassword: {
		"required": MsgPasswordRequired,
		"min":      MsgPasswordTooShort,
	},
}

//
// validator instance (package-level singleton, safe for concurrent use)
//

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON names so FieldError.Field() matches our Field keys.
	val.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return sf.Name
		}
		return name
	})

	mustRegister(val, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(val, "loose_email", func(fl validator.FieldLevel) bool {
		return looseEmail.MatchString(fl.Field().String())
	})
	return val
}

func mustRegister(val *validator.Validate, tag string, fn validator.Func) {
	if err := val.RegisterValidation(tag, fn); err != nil {
		panic("form: register " + tag + ": " + err.Error())
	}
}

// Validate checks email and password and returns the failing fields.  An
// empty (non-nil) set means the input is valid.  Validate has no side
// effects.
func Validate(email, password string) FieldErrors {
	errs := make(FieldErrors)

	err := v.Struct(loginInput{Email: email, Password: password})
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// Only reachable on a programming error (bad tag or non-struct).
		panic("form: unexpected validator error: " + err.Error())
	}
	for _, fe := range verrs {
		f := Field(fe.Field())
		if msg, ok := messages[f][fe.Tag()]; ok {
			errs[f] = msg
		}
	}
	return errs
}

// -----------------------------------------------------------------------------
// Error type
// -----------------------------------------------------------------------------

// ValidationError wraps a non-empty FieldErrors and satisfies error.
//
// It lets callers distinguish user input errors from transport failures via
// errors.As or IsValidationError.
type ValidationError struct{ Fields FieldErrors }

func (ve *ValidationError) Error() string { return "form validation failed" }

// IsValidationError reports whether err came from a failed Validate.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
