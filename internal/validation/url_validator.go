package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = New()

// New returns a validator with the project's custom rules registered.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	RegisterRules(v)
	return v
}

// RegisterRules adds the "safe_url" tag to v.
func RegisterRules(v *validator.Validate) {
	_ = v.RegisterValidation("safe_url", validateSafeURL)
}

// ValidateLocator checks that locator is an absolute http(s) URL that does
// not point at a local or private address.
func ValidateLocator(locator string) error {
	if err := validate.Var(locator, "required,safe_url"); err != nil {
		return fmt.Errorf("invalid locator %q: %w", locator, err)
	}
	return nil
}

func validateSafeURL(fl validator.FieldLevel) bool {
	return isSafeURL(fl.Field().String())
}

func isSafeURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	if u.Host == "" {
		return false
	}

	host := u.Hostname()

	forbiddenHosts := []string{
		"localhost",
		"127.0.0.1",
		"::1",
		"0.0.0.0",
		"169.254.169.254",
	}

	for _, forbidden := range forbiddenHosts {
		if strings.EqualFold(host, forbidden) {
			return false
		}
	}

	if ip := net.ParseIP(host); ip != nil {
		if ip.IsPrivate() || ip.IsLoopback() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() {
			return false
		}
	}

	return true
}
