package serrors

import (
	"errors"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrValidation = NewError("VALIDATION_FAILED", "validation failed", "Errors.ValidationFailed")

// ValidationErrors maps a struct field name to the rule it broke.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + v[f]
	}
	return ErrValidation.Message + ": " + strings.Join(parts, ", ")
}

func (v ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

// ProcessValidatorErrors converts the result of validator.Struct. Non-validation errors are
// returned unchanged.
func ProcessValidatorErrors(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(ValidationErrors, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		out[fe.Field()] = rule
	}
	return out
}
