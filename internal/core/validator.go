package core

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"subtrack/internal/types"
)

// Validator wraps go-playground/validator with domain-specific rules and
// translates field errors into the standard AppError shape.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a new Validator and registers custom validation tags.
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New()

	// billing_cycle: monthly|yearly
	_ = v.RegisterValidation("billing_cycle", func(fl validator.FieldLevel) bool {
		return types.BillingCycle(fl.Field().String()).IsValid()
	})

	// currency: EUR|USD|GBP
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return types.Currency(fl.Field().String()).IsValid()
	})

	return &Validator{
		validate: v,
		logger:   logger,
	}
}

// ValidateStruct validates a tagged request struct. On failure it returns a
// *types.AppError (400) whose Details map each offending field to a short
// human-readable reason.
func (v *Validator) ValidateStruct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		// Programming error (non-struct input), not client input.
		v.logger.Error("validator received invalid input", "error", err)
		return types.NewAppError(types.ErrCodeInternalUnexpected, "internal validation failure", err)
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return types.NewAppError(types.ErrCodeValidationInvalidField, "invalid request", err)
	}

	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fieldName(fe)] = fieldReason(fe)
	}

	return types.NewAppErrorWithDetails(
		types.ErrCodeValidationInvalidField,
		"request validation failed",
		err,
		details,
	)
}

// fieldName returns the lowercased leaf field name for client-facing details.
func fieldName(fe validator.FieldError) string {
	return strings.ToLower(fe.Field())
}

// fieldReason renders a short reason for the failed validation tag.
func fieldReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "billing_cycle":
		return "must be monthly or yearly"
	case "currency":
		return "must be one of: EUR USD GBP"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
