package errors

import (
	"fmt"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *NigError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *NigError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// InvalidInput creates an error for a bad command line value
func InvalidInput(message string) *NigError {
	return New(ErrCodeInvalidInput, message)
}

// CertificateNotFound creates a missing client certificate error
func CertificateNotFound(path string) *NigError {
	return New(ErrCodeCertificateNotFound, fmt.Sprintf("Certificate not found: %s", path)).
		WithDetail("path", path)
}

// Network creates a transport failure error for a request that exhausted its retries
func Network(method, url string, err error) *NigError {
	return Wrap(err, ErrCodeNetwork, fmt.Sprintf("%s %s failed", method, url)).
		WithDetail("method", method).
		WithDetail("url", url)
}

// IPChanged creates the error raised when the public address moves mid upload
func IPChanged(from, to string, cause error) *NigError {
	return Wrap(cause, ErrCodeIPChanged,
		fmt.Sprintf("Upload failed due to a network error. Your IP address changed from %s to %s. "+
			"Due to security policies the upload can't be retried", from, to)).
		WithDetail("from", from).
		WithDetail("to", to)
}

// Response creates an error for an unexpected server reply
func Response(code ErrorCode, message string, status int, body string) *NigError {
	return New(code, message).WithResponse(status, body)
}

// Aborted creates a user abort error
func Aborted(study string) *NigError {
	return New(ErrCodeAborted,
		fmt.Sprintf("Upload of already existing Study %s has been aborted by the user", study)).
		WithDetail("study", study)
}
