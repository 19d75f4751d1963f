package config

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/go-playground/validator/v10"
)

var apiVersionPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(-preview)?$`)

// Validator validates configuration values using go-playground/validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	v := validator.New()

	v.RegisterValidation("db_driver", validateDBDriver)
	v.RegisterValidation("api_version", validateAPIVersion)

	return &Validator{
		validate: v,
	}
}

// Validate validates a complete configuration
func (v *Validator) Validate(config *Config) error {
	if err := v.validate.Struct(config); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, e := range validationErrors {
				return ValidationError{
					Field:   e.Field(),
					Message: fmt.Sprintf("validation failed on tag '%s' with value '%v'", e.Tag(), e.Value()),
					Value:   e.Value(),
				}
			}
		}
		return err
	}

	return nil
}

// validateDBDriver validates database driver names
func validateDBDriver(fl validator.FieldLevel) bool {
	return slices.Contains([]string{DriverSQLServer, DriverPostgres, DriverDuckDB}, fl.Field().String())
}

// validateAPIVersion accepts dated versions such as 2024-10-21 and 2025-01-01-preview
func validateAPIVersion(fl validator.FieldLevel) bool {
	return apiVersionPattern.MatchString(fl.Field().String())
}
