package dto

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/spec-kit/lead-router/pkg/util"
)

var validate = validator.New()

// Validate runs struct tag validation and maps failures to the shared
// validation error shape.
func Validate(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	invalid, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	details := make(map[string]any, len(invalid))
	for _, fieldErr := range invalid {
		details[strings.ToLower(fieldErr.Field())] = fmt.Sprintf("failed %s validation", fieldErr.Tag())
	}
	return apperrors.NewValidationError("invalid payload", details)
}
