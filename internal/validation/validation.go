// Package validation turns raw request bodies into typed, normalized
// requests, reporting every rule violation at once.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strings"

	"github.com/example/order-backend/internal/domain/order"
	"github.com/go-playground/validator/v10"
)

var zipCodePattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// Violation is one failed rule on one field path, e.g. "items[0].quantity".
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error lists every violation found in a request.
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Schema parses a raw body into a normalized request value.
type Schema interface {
	Parse(body []byte) (any, error)
}

// Validator wraps a configured go-playground validator.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("zipcode", func(fl validator.FieldLevel) bool {
		return zipCodePattern.MatchString(fl.Field().String())
	})
	return &Validator{validate: v}
}

// Struct validates an already-decoded value.
func (v *Validator) Struct(value any) error {
	err := v.validate.Struct(value)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	violations := make([]Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, Violation{Field: fieldPath(fe), Message: message(fe)})
	}
	return &Error{Violations: violations}
}

// decode reads body strictly into dst. An empty body decodes as "{}" when
// allowEmpty is set.
func decode(body []byte, dst any, allowEmpty bool) error {
	if len(bytes.TrimSpace(body)) == 0 {
		if allowEmpty {
			return nil
		}
		return &Error{Violations: []Violation{{Field: "body", Message: "request body is required"}}}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &Error{Violations: []Violation{decodeViolation(err)}}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return &Error{Violations: []Violation{{Field: "body", Message: "must contain a single JSON object"}}}
	}
	return nil
}

func decodeViolation(err error) Violation {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return Violation{Field: field, Message: fmt.Sprintf("must be of type %s", typeErr.Type.String())}
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return Violation{Field: "body", Message: "malformed JSON"}
	}
	if strings.HasPrefix(err.Error(), "json: unknown field ") {
		return Violation{Field: strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`), Message: "is not allowed"}
	}
	return Violation{Field: "body", Message: "malformed JSON"}
}

// fieldPath drops the root struct name from the validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid UUID"
	case "zipcode":
		return "must be a 5-digit or ZIP+4 code"
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map {
			return fmt.Sprintf("must have at most %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "gt":
		return "must be greater than 0"
	case "unique":
		return fmt.Sprintf("must not repeat %s", lowerFirst(fe.Param()))
	case "oneof":
		return fmt.Sprintf("must be one of %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("failed %s rule", fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func normalizeAddress(a *order.Address) {
	if a == nil {
		return
	}
	a.Street = strings.TrimSpace(a.Street)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.ToUpper(strings.TrimSpace(a.State))
	a.ZipCode = strings.TrimSpace(a.ZipCode)
	a.Country = strings.ToUpper(strings.TrimSpace(a.Country))
	if a.Country == "" {
		a.Country = order.DefaultCountry
	}
}

func normalizeItems(items []order.Item) {
	for i := range items {
		items[i].ProductID = strings.ToLower(strings.TrimSpace(items[i].ProductID))
		items[i].Name = strings.TrimSpace(items[i].Name)
	}
}
