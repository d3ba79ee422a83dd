// internal/form/credentials.go
//
// Adept Sign-in – Forms subsystem: login data model.
//
// Context
//   The sign-in form owns three slices of state: the raw field values, the
//   field-level errors produced by Validate, and the submission state
//   (in-flight flag plus server error).  This file holds the value types that
//   travel between those slices and the transport.
//
// Notes
//   •  Credentials are ephemeral.  They are built at submit time, handed to
//      a Submitter, and dropped.  String and MarshalLogObject never expose
//      the email or password, so accidental logging stays harmless.
//   •  FieldErrors is rebuilt wholesale on every validation pass.
//
//------------------------------------------------------------------------------

package form

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// Field names a validated input.  Values double as JSON keys.
type Field string

const (
	FieldEmail    Field = "email"
	FieldPassword Field = "password"
)

// Credentials is the payload sent to a Submitter.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// NewCredentials trims email for transmission.  Password is kept verbatim.
func NewCredentials(email, password string, remember bool) Credentials {
	return Credentials{
		Email:    strings.TrimSpace(email),
		Password: password,
		Remember: remember,
	}
}

// String redacts everything but the remember flag.
func (c Credentials) String() string {
	if c.Remember {
		return "Credentials{redacted, remember}"
	}
	return "Credentials{redacted}"
}

// MarshalLogObject satisfies zapcore.ObjectMarshaler.
func (c Credentials) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddBool("remember", c.Remember)
	return nil
}

// FieldErrors maps a field to its user-facing message.  A missing key means
// the field is valid.
type FieldErrors map[Field]string

// Valid reports whether no field failed.
func (fe FieldErrors) Valid() bool { return len(fe) == 0 }

// clone returns an independent copy so snapshots never share the map.
func (fe FieldErrors) clone() FieldErrors {
	out := make(FieldErrors, len(fe))
	for k, v := range fe {
		out[k] = v
	}
	return out
}

// First returns the first failing message in display order (email, then
// password).  ok is false when the set is empty.
func (fe FieldErrors) First() (msg string, ok bool) {
	for _, f := range []Field{FieldEmail, FieldPassword} {
		if m, hit := fe[f]; hit {
			return m, true
		}
	}
	return "", false
}
