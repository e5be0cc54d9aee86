package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/grovetools/nig-upload/errors"
	"github.com/grovetools/nig-upload/logging"
)

// ErrorHandler prints user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates an error handler writing to stderr
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     os.Stderr,
	}
}

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Handle prints err with a hint matching its code and returns it unchanged.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}

	fmt.Fprintln(h.Out, errorStyle.Render(logging.IconError+" "+message(err)))
	if hint := hintFor(errors.GetCode(err)); hint != "" {
		fmt.Fprintln(h.Out, hintStyle.Render(hint))
	}

	if h.Verbose {
		if nigErr, ok := errors.As(err); ok {
			fmt.Fprintf(h.Out, "\nError details:\n%s\n", nigErr.ToJSON())
		}
	}
	return err
}

// message renders a coded error without its code prefix.
func message(err error) string {
	nigErr, ok := errors.As(err)
	if !ok {
		return err.Error()
	}
	msg := nigErr.Message
	if status, ok := nigErr.Details["status"]; ok {
		msg = fmt.Sprintf("%s. Code: %v, response: %v", msg, status, nigErr.Details["response"])
	}
	if nigErr.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, nigErr.Cause)
	}
	return msg
}

func hintFor(code errors.ErrorCode) string {
	switch code {
	case errors.ErrCodeConfigNotFound:
		return "Check the path given with --config."
	case errors.ErrCodeConfigInvalid, errors.ErrCodeConfigValidation:
		return "Run 'nig-upload config' to inspect the resolved configuration."
	case errors.ErrCodeCertificateNotFound, errors.ErrCodeCertificateInvalid:
		return "Provide the PKCS#12 certificate issued for your account with --certfile and its password."
	case errors.ErrCodeLoginFailed:
		return "Check your username, password and 2FA code."
	case errors.ErrCodeNetwork:
		return "Check your connection and the server URL."
	case errors.ErrCodeIPChanged:
		return "Start the upload again from a stable connection."
	case errors.ErrCodeAborted:
		return "Nothing else was uploaded."
	}
	return ""
}
