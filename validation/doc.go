// Package validation checks configuration and plan input.
//
// Struct tags cover per-field rules; the programmatic Validator covers rules
// that depend on more than one field. Both report failures as an
// errors.AppError whose "fields" detail lists every failing field.
//
// # Struct Tag Validation
//
//	type Step struct {
//	    Op string `mapstructure:"op" validate:"required,oneof=map filter take"`
//	    N  *int   `mapstructure:"n" validate:"omitempty,gte=0"`
//	}
//	err := validation.Validate(step)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.At("steps[0]").Needs(step.N != nil, "n", "take")
//	err := v.Err()
package validation
