package cli

import (
	"github.com/sirupsen/logrus"

	"github.com/grovetools/nig-upload/logging"
)

// NewLogger creates the logger used while loading configuration, before the
// component loggers exist. It only reports warnings unless verbose.
func NewLogger(verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(logging.GetGlobalOutput())
	logger.SetFormatter(&logging.TextFormatter{Config: logging.FormatConfig{DisableComponent: true}})
	logger.SetLevel(logrus.WarnLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}
