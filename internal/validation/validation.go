package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"kawanumkm/internal/models"
)

const (
	MinPasswordLength = 6
	// bcrypt only uses the first 72 bytes and rejects longer input
	MaxPasswordBytes = 72
	MaxNameLength    = 100
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NormalizeEmail trims and lower-cases an address so lookups and the unique
// index agree on a single spelling
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if len(email) > 255 || !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength)}
	}
	if len(password) > MaxPasswordBytes {
		return ValidationError{Field: "password", Message: fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes)}
	}
	return nil
}

// ValidateName checks if a name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	n := utf8.RuneCountInString(name)
	if n < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	if n > MaxNameLength {
		return ValidationError{Field: "name", Message: fmt.Sprintf("name must be at most %d characters", MaxNameLength)}
	}
	return nil
}

// ParseRegistrationRole resolves the role requested at sign-up. An empty value
// means a standard account; administrators cannot be self-registered.
func ParseRegistrationRole(role string) (models.Role, error) {
	r := models.Role(strings.TrimSpace(role))
	switch r {
	case "":
		return models.RoleStandard, nil
	case models.RoleStandard, models.RoleBusinessOwner:
		return r, nil
	case models.RoleAdmin:
		return "", ValidationError{Field: "role", Message: "admin accounts cannot be self-registered"}
	default:
		return "", ValidationError{Field: "role", Message: "role must be standard or business-owner"}
	}
}

// ValidateRating checks that a review rating is between 1 and 5
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return ValidationError{Field: "rating", Message: "rating must be between 1 and 5"}
	}
	return nil
}

// ValidateBusiness checks the required listing fields and coordinate ranges
func ValidateBusiness(name, category string, latitude, longitude *float64) error {
	if strings.TrimSpace(name) == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ValidationError{Field: "name", Message: fmt.Sprintf("name must be at most %d characters", MaxNameLength)}
	}
	if strings.TrimSpace(category) == "" {
		return ValidationError{Field: "category", Message: "category is required"}
	}
	return ValidateCoordinates(latitude, longitude)
}

// ValidateCoordinates checks optional latitude and longitude values
func ValidateCoordinates(latitude, longitude *float64) error {
	if latitude != nil && (*latitude < -90 || *latitude > 90) {
		return ValidationError{Field: "latitude", Message: "latitude must be between -90 and 90"}
	}
	if longitude != nil && (*longitude < -180 || *longitude > 180) {
		return ValidationError{Field: "longitude", Message: "longitude must be between -180 and 180"}
	}
	return nil
}
