package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/kbukum/seqkit/errors"
)

// FieldError is one failed rule. Field is a dotted path such as
// "steps[2].arg".
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator collects errors for rules that struct tags cannot express,
// such as checks that depend on another field. Validators returned by At
// share the error list of the validator they came from.
type Validator struct {
	prefix string
	errs   *[]FieldError
}

// New creates an empty Validator rooted at the top level.
func New() *Validator {
	return &Validator{errs: new([]FieldError)}
}

// At returns a Validator that records fields under path.
//
//	v.At("steps[1]").Needs(false, "n", "take") // steps[1].n: is required for take
func (v *Validator) At(path string) *Validator {
	return &Validator{prefix: v.path(path), errs: v.errs}
}

func (v *Validator) path(field string) string {
	switch {
	case v.prefix == "":
		return field
	case field == "":
		return v.prefix
	}
	return v.prefix + "." + field
}

// AddError records message against field.
func (v *Validator) AddError(field, message string) {
	*v.errs = append(*v.errs, FieldError{Field: v.path(field), Message: message})
}

// HasErrors reports whether any rule failed, at any path.
func (v *Validator) HasErrors() bool {
	return len(*v.errs) > 0
}

// Errors returns the failures in the order they were recorded.
func (v *Validator) Errors() []FieldError {
	return slices.Clone(*v.errs)
}

// Validate folds the failures into one INVALID_ARGUMENT error carrying a
// "fields" detail, or returns nil when there are none.
func (v *Validator) Validate() *errors.AppError {
	if !v.HasErrors() {
		return nil
	}
	var msg strings.Builder
	for i, fe := range *v.errs {
		if i > 0 {
			msg.WriteString("; ")
		}
		msg.WriteString(fe.Field)
		msg.WriteString(": ")
		msg.WriteString(fe.Message)
	}
	return errors.Validation(msg.String()).WithDetail("fields", v.Errors())
}

// Err is Validate as a plain error, nil when there are no errors.
func (v *Validator) Err() error {
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// Merge takes over the field errors carried by err, as returned by Validate,
// Err or the package-level Validate, placing them under v's path. Any other
// non-nil error is recorded against field.
func (v *Validator) Merge(field string, err error) *Validator {
	if err == nil {
		return v
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		v.AddError(field, err.Error())
		return v
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok {
		v.AddError(field, appErr.Message)
		return v
	}
	for _, fe := range fields {
		v.AddError(fe.Field, fe.Message)
	}
	return v
}

// Custom records message against field unless condition holds.
func (v *Validator) Custom(condition bool, field, message string) *Validator {
	if !condition {
		v.AddError(field, message)
	}
	return v
}

// Needs records field as missing for owner unless present holds.
func (v *Validator) Needs(present bool, field, owner string) *Validator {
	return v.Custom(present, field, "is required for "+owner)
}

// Required fails blank strings.
func (v *Validator) Required(field, value string) *Validator {
	return v.Custom(strings.TrimSpace(value) != "", field, "is required")
}

// OneOf fails a non-empty value outside allowed. The message lists allowed
// in the order given.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" {
		return v
	}
	return v.Custom(slices.Contains(allowed, value), field, "must be one of: "+strings.Join(allowed, ", "))
}

// RequiredUUID fails anything but a parseable, non-nil UUID.
func (v *Validator) RequiredUUID(field, value string) *Validator {
	if value == "" {
		return v.Required(field, value)
	}
	id, err := uuid.Parse(value)
	return v.Custom(err == nil && id != uuid.Nil, field, "must be a valid UUID")
}

// OptionalUUID is RequiredUUID that lets the empty string through.
func (v *Validator) OptionalUUID(field, value string) *Validator {
	if value == "" {
		return v
	}
	return v.RequiredUUID(field, value)
}

// ValidateUUID parses value, reporting a blank or malformed one as
// INVALID_ARGUMENT on field.
func ValidateUUID(field, value string) (uuid.UUID, error) {
	if strings.TrimSpace(value) == "" {
		return uuid.Nil, errors.InvalidArgument(field, fmt.Sprintf("%s is required", field))
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, errors.InvalidArgument(field, fmt.Sprintf("%s must be a valid UUID", field)).WithCause(err)
	}
	return id, nil
}
