package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/benvon/origin-guard/internal/originpolicy"
	"github.com/go-playground/validator/v10"
	"github.com/ulule/limiter/v3"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for configuration values
	if err := Validate.RegisterValidation("cors_policy_mode", validateCorsPolicyMode); err != nil {
		panic(fmt.Sprintf("failed to register cors_policy_mode validator: %v", err))
	}
	if err := Validate.RegisterValidation("ulule_rate", validateUluleRate); err != nil {
		panic(fmt.Sprintf("failed to register ulule_rate validator: %v", err))
	}
}

func validateCorsPolicyMode(fl validator.FieldLevel) bool {
	_, err := originpolicy.ParseMode(fl.Field().String())
	return err == nil
}

func validateUluleRate(fl validator.FieldLevel) bool {
	_, err := limiter.NewRateFromFormatted(fl.Field().String())
	return err == nil
}

// ValidateOriginEntry checks a single allow_origin entry. Entries are compared
// byte for byte against the Origin header, so anything with whitespace, control
// characters or a path can never match.
func ValidateOriginEntry(value string) error {
	if value == "" {
		return fmt.Errorf("origin must not be empty")
	}
	for _, r := range value {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("origin %q contains whitespace or control characters", value)
		}
	}
	if value == originpolicy.Wildcard || value == "null" {
		return nil
	}
	scheme, rest, ok := strings.Cut(value, "://")
	if !ok || scheme == "" || rest == "" {
		return fmt.Errorf("origin %q must look like scheme://host[:port]", value)
	}
	if rest != "." && strings.Contains(rest, "/") {
		return fmt.Errorf("origin %q must not contain a path", value)
	}
	return nil
}
