// Package validation turns raw request bodies into checked inputs for the
// record service. Each Decode function parses first, then validates, and
// returns either a ready-to-store value or a typed error:
//
//   - ErrMalformedBody when the body is not a JSON object or a field has the
//     wrong JSON type
//   - *ValidationError when a field is missing or invalid; Message is safe to
//     show to the client
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrMalformedBody reports an undecodable request body.
var ErrMalformedBody = errors.New("malformed request body")

// Client-facing validation messages.
const (
	MsgEmailRequired   = "Valid email_to is required"
	MsgMessageRequired = "mobile_number and message are required"
	MsgMobileTooLong   = "mobile_number must be at most 30 characters"
	MsgIDRequired      = "Valid id is required"
	MsgKindRequired    = "Valid type is required (email/sms/whatsapp)"
)

// ValidationError is a single field failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

// IsValidationError reports whether err carries a *ValidationError and returns it.
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the shared validator instance. Field names in
// validator errors use the json tag so they match the wire format.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}
