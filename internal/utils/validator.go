// internal/utils/validator.go
package utils

import (
	"errors"
	"math"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/javajoker/artmarket-backend/internal/models"
)

const (
	MaxListingPrice       = 1000000.0
	MaxOfferAmount        = MaxListingPrice
	MaxPaymentAmountMinor = 99999999
)

var (
	validate      *validator.Validate
	usernameRegex = regexp.MustCompile("^[a-zA-Z0-9_]+$")
)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(fieldName)
	validate.RegisterValidation("username", validateUsername)
	validate.RegisterValidation("listing_price", validateListingPrice)
	validate.RegisterValidation("offer_amount", validateOfferAmount)
	validate.RegisterValidation("listing_category", validateListingCategory)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// fieldName reports fields by their json (or form) name so error details
// match what the client sent.
func fieldName(field reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return field.Name
}

func validateUsername(fl validator.FieldLevel) bool {
	username := fl.Field().String()

	// Username should be alphanumeric and underscores, 3-50 characters
	if len(username) < 3 || len(username) > 50 {
		return false
	}

	return usernameRegex.MatchString(username)
}

// Listing prices live in (0, 1,000,000] and are whole cents.
func validateListingPrice(fl validator.FieldLevel) bool {
	return isMoney(fl.Field().Float(), MaxListingPrice)
}

func validateOfferAmount(fl validator.FieldLevel) bool {
	return isMoney(fl.Field().Float(), MaxOfferAmount)
}

// isMoney reports whether v is in (0, limit] with at most two decimal places,
// which is what a decimal(12,2) column stores without rounding.
func isMoney(v, limit float64) bool {
	if math.IsNaN(v) || v <= 0 || v > limit {
		return false
	}
	cents := v * 100
	return math.Abs(cents-math.Round(cents)) < 1e-6
}

func validateListingCategory(fl validator.FieldLevel) bool {
	return models.ListingCategory(fl.Field().String()).IsValid()
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   e.Field(),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return e.Field() + " must be at least " + e.Param() + " characters"
		}
		return e.Field() + " must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return e.Field() + " must be at most " + e.Param() + " characters"
		}
		return e.Field() + " must be at most " + e.Param()
	case "gte":
		return e.Field() + " must be at least " + e.Param()
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "lte":
		return e.Field() + " must be at most " + e.Param()
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "username":
		return "Username must be 3-50 characters and contain only letters, numbers, and underscores"
	case "listing_price":
		return "Price must be greater than 0, at most 1,000,000 and in whole cents"
	case "offer_amount":
		return "Amount must be greater than 0, at most 1,000,000 and in whole cents"
	case "listing_category":
		return "Category is not a known artwork category"
	default:
		return e.Field() + " is invalid"
	}
}
