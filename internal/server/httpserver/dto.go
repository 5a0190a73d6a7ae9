package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=80"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type entryRequest struct {
	Platform   string `json:"platform" validate:"required,min=2,max=120"`
	Username   string `json:"username" validate:"required,min=1,max=120"`
	Ciphertext string `json:"ciphertext" validate:"required,min=1"`
	IV         string `json:"iv" validate:"required,min=1"`
}

// validationError carries per-field messages back to the client.
type validationError struct {
	fields map[string][]string
	form   []string
}

func (e *validationError) Error() string {
	return fmt.Sprintf("validation failed: %v %v", e.form, e.fields)
}

func (e *validationError) details() map[string]any {
	form := e.form
	if form == nil {
		form = []string{}
	}
	fields := e.fields
	if fields == nil {
		fields = map[string][]string{}
	}
	return map[string]any{"formErrors": form, "fieldErrors": fields}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a single strict JSON object into dst and validates it.
// Unknown fields, trailing data and oversized bodies are rejected.
func decode(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return &validationError{form: []string{describeDecodeError(err)}}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &validationError{form: []string{"request body must contain a single JSON object"}}
	}

	if err := v.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		out := &validationError{fields: make(map[string][]string, len(verrs))}
		for _, fieldErr := range verrs {
			out.fields[fieldErr.Field()] = append(out.fields[fieldErr.Field()], fieldMessage(fieldErr))
		}
		return out
	}
	return nil
}

func describeDecodeError(err error) string {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return "malformed JSON"
	case errors.As(err, &typeErr):
		return fmt.Sprintf("field %q has the wrong type", typeErr.Field)
	case errors.As(err, &maxErr):
		return "request body too large"
	case errors.Is(err, io.EOF):
		return "request body is empty"
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return "unrecognized key " + strings.TrimPrefix(err.Error(), "json: unknown field ")
	default:
		return "invalid request body"
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must contain at least " + fe.Param() + " character(s)"
	case "max":
		return "must contain at most " + fe.Param() + " character(s)"
	default:
		return "is invalid"
	}
}
