package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Credential errors
	ErrCodeCertificateNotFound ErrorCode = "CERTIFICATE_NOT_FOUND"
	ErrCodeCertificateInvalid  ErrorCode = "CERTIFICATE_INVALID"
	ErrCodeLoginFailed         ErrorCode = "LOGIN_FAILED"

	// Transport errors
	ErrCodeNetwork   ErrorCode = "NETWORK"
	ErrCodeIPChanged ErrorCode = "IP_CHANGED"

	// Remote resource errors
	ErrCodeResourceCreation      ErrorCode = "RESOURCE_CREATION"
	ErrCodeResourceRetrieving    ErrorCode = "RESOURCE_RETRIEVING"
	ErrCodeResourceAssignation   ErrorCode = "RESOURCE_ASSIGNATION"
	ErrCodeResourceModification  ErrorCode = "RESOURCE_MODIFICATION"
	ErrCodeRetrieveExistingStudy ErrorCode = "RETRIEVE_EXISTING_STUDY"
	ErrCodeUploadInit            ErrorCode = "UPLOAD_INIT"
	ErrCodeUpload                ErrorCode = "UPLOAD"
	ErrCodeGeodata               ErrorCode = "GEODATA"
	ErrCodeRelationship          ErrorCode = "RELATIONSHIP"

	// Study metadata errors
	ErrCodePhenotypeMalformed   ErrorCode = "PHENOTYPE_MALFORMED"
	ErrCodePhenotypeName        ErrorCode = "PHENOTYPE_NAME"
	ErrCodeHPO                  ErrorCode = "HPO"
	ErrCodeParsingSex           ErrorCode = "PARSING_SEX"
	ErrCodeAge                  ErrorCode = "AGE"
	ErrCodeTechnicalMalformed   ErrorCode = "TECHNICAL_MALFORMED"
	ErrCodeUnknownPlatform      ErrorCode = "UNKNOWN_PLATFORM"
	ErrCodeTechnicalAssociation ErrorCode = "TECHNICAL_ASSOCIATION"

	// General errors
	ErrCodeAborted      ErrorCode = "ABORTED"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// NigError represents a structured error with context
type NigError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *NigError) Error() string {
	msg := e.Message
	if status, ok := e.Details["status"]; ok {
		msg = fmt.Sprintf("%s. Code: %v, response: %v", msg, status, e.Details["response"])
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap implements the errors.Unwrap interface
func (e *NigError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *NigError) WithDetail(key string, value interface{}) *NigError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithResponse records the status code and body of an unexpected server reply.
func (e *NigError) WithResponse(status int, body string) *NigError {
	return e.WithDetail("status", status).WithDetail("response", body)
}

// ToJSON converts the error to JSON
func (e *NigError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new NigError
func New(code ErrorCode, message string) *NigError {
	return &NigError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a NigError
func Wrap(err error, code ErrorCode, message string) *NigError {
	return &NigError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific NigError code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	nigErr, ok := err.(*NigError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return Is(unwrapper.Unwrap(), code)
		}
		return false
	}

	return nigErr.Code == code
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	nigErr, ok := err.(*NigError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return nigErr.Code
}

// As returns the first NigError in err's chain.
func As(err error) (*NigError, bool) {
	for err != nil {
		if nigErr, ok := err.(*NigError); ok {
			return nigErr, true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = unwrapper.Unwrap()
	}
	return nil, false
}
