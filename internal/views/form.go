package views

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/masjidku/masjidku-web/internal/backend"
)

// FormState is what a form renders after a submit
type FormState struct {
	Values      map[string]string
	FieldErrors map[string]string
	Error       string
	Success     string
}

// NewFormState seeds a form with submitted values
func NewFormState(values map[string]string) FormState {
	if values == nil {
		values = map[string]string{}
	}
	return FormState{Values: values}
}

// Value returns a submitted value for re-rendering
func (f FormState) Value(name string) string {
	return f.Values[name]
}

// FieldError returns the message for one field
func (f FormState) FieldError(name string) string {
	return f.FieldErrors[name]
}

// HasErrors reports whether the submit failed
func (f FormState) HasErrors() bool {
	return f.Error != "" || len(f.FieldErrors) > 0
}

// Invalid adds a field error
func (f *FormState) Invalid(field, msg string) {
	if f.FieldErrors == nil {
		f.FieldErrors = map[string]string{}
	}
	if _, exists := f.FieldErrors[field]; !exists {
		f.FieldErrors[field] = msg
	}
}

// Validator checks backend inputs before they are sent, reporting fields by
// their JSON names so backend and local errors share keys.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator keyed by json tag names
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Check validates input and records failures on the form
func (v *Validator) Check(input any, form *FormState) bool {
	err := v.validate.Struct(input)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		form.Error = MsgSaveFailed
		return false
	}
	for _, fe := range verrs {
		form.Invalid(fe.Field(), fieldMessage(fe))
	}
	return false
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Wajib diisi"
	case "gt":
		return "Harus lebih dari " + fe.Param()
	case "max":
		return "Maksimal " + fe.Param() + " karakter"
	case "oneof":
		return "Pilih salah satu: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "Format email tidak valid"
	case "url":
		return "URL tidak valid"
	case "datetime":
		return "Format tidak valid (" + fe.Param() + ")"
	case "eqfield":
		return "Tidak cocok"
	case "min":
		return "Minimal " + fe.Param() + " karakter"
	default:
		return "Tidak valid"
	}
}

// submit validates input, runs call and maps its outcome onto the form.
// Backend validation errors become field errors and a backend message is
// shown verbatim; anything else gets the generic banner.
func submit(ctx context.Context, v *Validator, form FormState, input any, logger zerolog.Logger, success string, call func(ctx context.Context) error) FormState {
	if valid := v.Check(input, &form); !valid || len(form.FieldErrors) > 0 {
		return form
	}

	err := call(ctx)
	if err == nil {
		form.Success = success
		return form
	}

	logger.Error().Err(err).Msg("Submit failed")
	apiErr, ok := backend.AsAPIError(err)
	if !ok {
		form.Error = MsgSaveFailed
		return form
	}
	if apiErr.IsValidation() {
		for _, field := range apiErr.FieldNames() {
			if msgs := apiErr.Errors[field]; len(msgs) > 0 {
				form.Invalid(field, msgs[0])
			}
		}
	}
	form.Error = apiErr.Message
	if form.Error == "" && len(form.FieldErrors) == 0 {
		form.Error = MsgSaveFailed
	}
	return form
}
