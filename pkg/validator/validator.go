package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"hlg-fitness/internal/model"
)

type ErrorResponse struct {
	FailedField string `json:"field"`
	Tag         string `json:"tag"`
	Value       string `json:"value,omitempty"`
}

// Message renders a short human readable description of the failure.
func (e *ErrorResponse) Message() string {
	switch e.Tag {
	case "required":
		return fmt.Sprintf("%s is required", e.FailedField)
	case "email":
		return fmt.Sprintf("%s must be a valid email", e.FailedField)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", e.FailedField, e.Value)
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", e.FailedField, e.Value)
	case "eqfield":
		return fmt.Sprintf("%s must match %s", e.FailedField, e.Value)
	case "product_category":
		return fmt.Sprintf("%s must be one of %v", e.FailedField, model.ProductCategories)
	case "sale_status":
		return fmt.Sprintf("%s must be one of %v", e.FailedField, model.SaleStatuses)
	default:
		return fmt.Sprintf("%s failed on '%s'", e.FailedField, e.Tag)
	}
}

var validate = validator.New()

func init() {
	validate.RegisterValidation("product_category", func(fl validator.FieldLevel) bool {
		return model.ProductCategory(fl.Field().String()).Valid()
	})
	validate.RegisterValidation("sale_status", func(fl validator.FieldLevel) bool {
		return model.SaleStatus(fl.Field().String()).Valid()
	})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return []*ErrorResponse{{FailedField: "body", Tag: "invalid"}}
		}
		for _, err := range validationErrors {
			var element ErrorResponse
			element.FailedField = err.Field()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}

// FirstError returns the first failure as an error, or nil when data is valid.
func FirstError(data interface{}) error {
	if errs := ValidateStruct(data); len(errs) > 0 {
		return fmt.Errorf("validation failed: %s", errs[0].Message())
	}
	return nil
}
