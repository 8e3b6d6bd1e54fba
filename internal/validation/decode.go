package validation

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/vovakirdan/commlog-server/internal/store"
)

// EmailInput is a validated email log request.
type EmailInput struct {
	EmailTo string `json:"email_to" validate:"required,email"`
}

// MessageInput is a validated SMS or WhatsApp log request.
type MessageInput struct {
	MobileNumber string `json:"mobile_number" validate:"required,max=30"`
	Message      string `json:"message" validate:"required"`
}

// DeleteInput is a validated delete request.
type DeleteInput struct {
	Kind store.Kind
	ID   int64
}

// DecodeEmail parses and validates an email creation body.
func DecodeEmail(body []byte) (EmailInput, error) {
	obj, err := decodeObject(body)
	if err != nil {
		return EmailInput{}, err
	}
	var in EmailInput
	if err := stringField(obj, "email_to", &in.EmailTo); err != nil {
		return EmailInput{}, err
	}
	in.EmailTo = strings.TrimSpace(in.EmailTo)

	if err := GetValidator().Struct(&in); err != nil {
		return EmailInput{}, invalid("email_to", MsgEmailRequired)
	}
	return in, nil
}

// DecodeMessage parses and validates an SMS or WhatsApp creation body.
func DecodeMessage(body []byte) (MessageInput, error) {
	obj, err := decodeObject(body)
	if err != nil {
		return MessageInput{}, err
	}
	var in MessageInput
	if err := stringField(obj, "mobile_number", &in.MobileNumber); err != nil {
		return MessageInput{}, err
	}
	if err := stringField(obj, "message", &in.Message); err != nil {
		return MessageInput{}, err
	}
	in.MobileNumber = strings.TrimSpace(in.MobileNumber)
	in.Message = strings.TrimSpace(in.Message)

	err = GetValidator().Struct(&in)
	if err == nil {
		return in, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return MessageInput{}, invalid("mobile_number", MsgMessageRequired)
	}
	// Missing fields are reported before length.
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return MessageInput{}, invalid(fe.Field(), MsgMessageRequired)
		}
	}
	return MessageInput{}, invalid("mobile_number", MsgMobileTooLong)
}

// DecodeDelete parses and validates a delete body. The id is checked before the type.
func DecodeDelete(body []byte) (DeleteInput, error) {
	obj, err := decodeObject(body)
	if err != nil {
		return DeleteInput{}, err
	}
	var kindName string
	if err := stringField(obj, "type", &kindName); err != nil {
		return DeleteInput{}, err
	}

	id, ok := parseID(obj["id"])
	if !ok {
		return DeleteInput{}, invalid("id", MsgIDRequired)
	}

	kind, ok := store.ParseKind(strings.TrimSpace(kindName))
	if !ok {
		return DeleteInput{}, invalid("type", MsgKindRequired)
	}

	return DeleteInput{Kind: kind, ID: id}, nil
}

// decodeObject parses body as a top-level JSON object. Keys are kept verbatim
// so field lookups are case-sensitive.
func decodeObject(body []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrMalformedBody
	}
	if !utf8.Valid(trimmed) {
		return nil, fmt.Errorf("%w: invalid utf-8", ErrMalformedBody)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return obj, nil
}

// stringField copies obj[key] into dst. Missing keys and null leave dst empty.
func stringField(obj map[string]json.RawMessage, key string, dst *string) error {
	raw, ok := obj[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: field %s: %v", ErrMalformedBody, key, err)
	}
	return nil
}

// parseID accepts a JSON integer, a JSON number (truncated toward zero), a
// string holding a base-10 integer, or a boolean (true is 1, false is 0).
func parseID(raw json.RawMessage) (int64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if id, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
			return id, true
		}
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		f = math.Trunc(f)
		if f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return 0, false
		}
		if b {
			return 1, true
		}
		return 0, true
	default:
		// null, arrays and objects
		return 0, false
	}
}
