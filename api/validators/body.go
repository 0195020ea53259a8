// Package validators decodes and checks request input, turning every
// failure into a CodeValidation error.
package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
)

const maxJSONBody = 1 << 20

// Field errors are reported under their json names.
var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}()

// tagMessages renders a failed rule; %s receives the rule parameter.
var tagMessages = map[string]string{
	"required": "is required",
	"min":      "must be at least %s",
	"gte":      "must be at least %s",
	"max":      "must be at most %s",
	"lte":      "must be at most %s",
	"gt":       "must be greater than %s",
	"len":      "must be exactly %s characters",
	"numeric":  "must contain digits only",
	"email":    "must be a valid email",
}

// DecodeJSONBody reads at most 1 MiB of JSON into dest and validates it.
// Unknown fields are tolerated since the web client posts confirmation
// fields the API ignores.
func DecodeJSONBody(r *http.Request, dest any) error {
	body := http.MaxBytesReader(nil, r.Body, maxJSONBody)
	defer func() { _, _ = io.Copy(io.Discard, body) }()

	if err := json.NewDecoder(body).Decode(dest); err != nil {
		return malformed(err)
	}
	return Struct(dest)
}

// DecodeJSONString handles a JSON document sent as a multipart form field.
func DecodeJSONString(raw string, dest any) error {
	if strings.TrimSpace(raw) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid request body")
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return malformed(err)
	}
	return Struct(dest)
}

func Struct(dest any) error {
	err := validate.Struct(dest)
	if err == nil {
		return nil
	}

	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			// dest is not a struct; nothing to validate.
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}

	details := make(map[string]string, len(fields))
	for _, fe := range fields {
		details[fe.Field()] = describe(fe)
	}
	first := fields[0]
	return pkgerrors.New(pkgerrors.CodeValidation, first.Field()+" "+describe(first)).WithDetails(details)
}

func describe(fe validator.FieldError) string {
	tmpl, ok := tagMessages[fe.Tag()]
	if !ok {
		return "is invalid"
	}
	if strings.Contains(tmpl, "%s") {
		return fmt.Sprintf(tmpl, fe.Param())
	}
	return tmpl
}

func malformed(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").
		WithDetails(map[string]any{"error": err.Error()})
}
