package myfatoorah

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	ErrorTypeConfiguration     ErrorType = "CONFIGURATION_ERROR"
	ErrorTypeTransport         ErrorType = "TRANSPORT_ERROR"
	ErrorTypeMalformedResponse ErrorType = "MALFORMED_RESPONSE"
	ErrorTypeAPI               ErrorType = "API_ERROR"
)

// Gateway response codes.
const (
	ResponseCodeSuccess             = 0
	ResponseCodeMerchantNotFound    = 1000
	ResponseCodeInvalidCredentials  = 1001
	ResponseCodeTransactionNotFound = 1002
	ResponseCodeProductNotFound     = 1003
	ResponseCodeCustomerNotFound    = 1004
	ResponseCodeReferenceNotFound   = 1005
	ResponseCodeTransactionFailed   = 2009
	ResponseCodeUnknownError        = 9999
)

var responseCodeDetails = map[int]string{
	ResponseCodeSuccess:             "Success",
	ResponseCodeMerchantNotFound:    "Merchant ID not found",
	ResponseCodeInvalidCredentials:  "Invalid username/password",
	ResponseCodeTransactionNotFound: "Transaction details not found",
	ResponseCodeProductNotFound:     "Product details not found",
	ResponseCodeCustomerNotFound:    "Customer details not found",
	ResponseCodeReferenceNotFound:   "Reference details not found",
	ResponseCodeTransactionFailed:   "Transaction Failed Messages (Not Captured, Voided, Cancelled, Failure)",
	ResponseCodeUnknownError:        "Unknown error",
}

// DescribeResponseCode returns the documented meaning of a gateway response
// code, or "" when the code is not one the gateway documents.
func DescribeResponseCode(code int) string {
	return responseCodeDetails[code]
}

// ConfigurationError is returned before any network activity when a
// required setting or request field is missing or invalid.
type ConfigurationError struct {
	Field  string
	Reason string
}

func NewConfigurationError(field, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: reason}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("myfatoorah: %s %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Type() ErrorType {
	return ErrorTypeConfiguration
}

// TransportError covers DNS, connect, TLS, timeout and non-2xx failures.
type TransportError struct {
	URL        string
	StatusCode int
	Cause      error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("myfatoorah: transport to %s failed with HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("myfatoorah: transport to %s failed: %v", e.URL, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

func (e *TransportError) Type() ErrorType {
	return ErrorTypeTransport
}

// MalformedResponseError means the gateway answered 2xx but the body was not
// the XML document we expected. Payload keeps the raw body for diagnosis.
type MalformedResponseError struct {
	Reason  string
	Payload []byte
	Cause   error
}

func (e *MalformedResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("myfatoorah: malformed response: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("myfatoorah: malformed response: %s", e.Reason)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Cause
}

func (e *MalformedResponseError) Type() ErrorType {
	return ErrorTypeMalformedResponse
}

// APIError is a non-zero ResponseCode returned for a payment-link request.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("myfatoorah: error %d: %s", e.Code, e.Message)
}

func (e *APIError) Type() ErrorType {
	return ErrorTypeAPI
}

// Description looks the code up in the gateway's documented code table.
func (e *APIError) Description() string {
	if d := DescribeResponseCode(e.Code); d != "" {
		return d
	}
	return DescribeResponseCode(ResponseCodeUnknownError)
}

// ErrorTypeOf returns the ErrorType of the first typed error in err's chain.
func ErrorTypeOf(err error) (ErrorType, bool) {
	var typed interface{ Type() ErrorType }
	if errors.As(err, &typed) {
		return typed.Type(), true
	}
	return "", false
}

// IsRetryable reports whether a caller may reasonably retry the call that
// produced err. Only transport failures qualify.
func IsRetryable(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
