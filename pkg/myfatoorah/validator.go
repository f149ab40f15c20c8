package myfatoorah

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report semantic labels ("customerEmail") instead of Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("field")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	if err := validate.RegisterValidation("gateway_url", isGatewayURL); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("notblank", isNotBlank); err != nil {
		panic(err)
	}
}

func isNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// isGatewayURL accepts absolute https URLs. Plain http is allowed only for
// loopback hosts so local fakes and test servers can be targeted.
func isGatewayURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil || u.Host == "" {
		return false
	}
	switch u.Scheme {
	case "https":
		return true
	case "http":
		host := u.Hostname()
		if host == "localhost" {
			return true
		}
		ip := net.ParseIP(host)
		return ip != nil && ip.IsLoopback()
	}
	return false
}

// ValidateGatewayConfig checks that cfg is complete enough to make any call.
func ValidateGatewayConfig(cfg GatewayConfig) error {
	if err := validateStruct(cfg); err != nil {
		return err
	}
	if cfg.InsecureSkipVerify && strings.EqualFold(strings.TrimRight(cfg.BaseURL, "/"), LiveBaseURL) {
		return NewConfigurationError("insecureSkipVerify", "is not allowed for the live endpoint")
	}
	return nil
}

// ValidatePaymentRequest checks cfg and req before a payment link is
// requested, failing on the first missing or invalid field.
func ValidatePaymentRequest(cfg GatewayConfig, req PaymentRequest) error {
	if err := ValidateGatewayConfig(cfg); err != nil {
		return err
	}
	if err := validateStruct(req); err != nil {
		return err
	}
	for i, p := range req.Products {
		if p.UnitPrice.IsNegative() {
			return NewConfigurationError(fmt.Sprintf("products[%d].unitPrice", i), "must not be negative")
		}
	}
	return nil
}

// ValidateOrderStatusRequest checks cfg and the reference being polled.
func ValidateOrderStatusRequest(cfg GatewayConfig, referenceID string) error {
	if err := ValidateGatewayConfig(cfg); err != nil {
		return err
	}
	if strings.TrimSpace(referenceID) == "" {
		return NewConfigurationError("referenceId", "is required")
	}
	return nil
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return fmt.Errorf("myfatoorah: validate: %w", err)
	}

	fe := validationErrors[0]
	return NewConfigurationError(fieldLabel(fe), fieldReason(fe))
}

// fieldLabel is the leaf label, except inside slices where the index is kept
// ("products[1].quantity").
func fieldLabel(fe validator.FieldError) string {
	ns := fe.Namespace()
	if strings.Contains(ns, "[") {
		if i := strings.Index(ns, "."); i >= 0 {
			return ns[i+1:]
		}
	}
	return fe.Field()
}

func fieldReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
	case "url":
		return "must be an absolute URL"
	case "gateway_url":
		return "must be an absolute https URL"
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "alpha":
		return "must contain letters only"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
