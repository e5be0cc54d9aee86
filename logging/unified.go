package logging

import (
	"context"
	"fmt"
	"regexp"
	"runtime"

	"github.com/sirupsen/logrus"
)

// ansiRegex matches ANSI escape sequences for stripping
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// UnifiedLogger creates log entries that write to both pretty and structured outputs.
// Every user-facing message of an upload run is also kept in the structured log.
type UnifiedLogger struct {
	component  string
	verbose    bool
	pretty     *PrettyLogger
	structured *logrus.Entry
}

// NewUnifiedLoggerWith creates a unified logger for component around an
// existing structured entry.
func NewUnifiedLoggerWith(component string, structured *logrus.Entry) *UnifiedLogger {
	// The caller is tracked in logStructured so file/func point at the call site.
	structured.Logger.SetReportCaller(false)

	return &UnifiedLogger{
		component:  component,
		pretty:     NewPrettyLogger(),
		structured: structured,
	}
}

// SetVerbose shows Debug entries in pretty output.
func (u *UnifiedLogger) SetVerbose(verbose bool) {
	u.verbose = verbose
}

// Debug returns a LogEntry at DEBUG level.
// Debug messages are hidden in pretty output unless verbose.
func (u *UnifiedLogger) Debug(format string, args ...interface{}) *LogEntry {
	return u.entry(logrus.DebugLevel, "", logrus.Fields{}, format, args...)
}

// Info returns a LogEntry at INFO level.
func (u *UnifiedLogger) Info(format string, args ...interface{}) *LogEntry {
	return u.entry(logrus.InfoLevel, IconInfo, logrus.Fields{"status": "info"}, format, args...)
}

// Warn returns a LogEntry at WARN level with IconWarning.
func (u *UnifiedLogger) Warn(format string, args ...interface{}) *LogEntry {
	return u.entry(logrus.WarnLevel, IconWarning, logrus.Fields{}, format, args...)
}

// Error returns a LogEntry at ERROR level with IconError.
func (u *UnifiedLogger) Error(format string, args ...interface{}) *LogEntry {
	return u.entry(logrus.ErrorLevel, IconError, logrus.Fields{}, format, args...)
}

// Success returns a LogEntry with IconSuccess pre-set.
// Success messages are logged at INFO level with status=success in structured output.
func (u *UnifiedLogger) Success(format string, args ...interface{}) *LogEntry {
	return u.entry(logrus.InfoLevel, IconSuccess, logrus.Fields{"status": "success"}, format, args...)
}

func (u *UnifiedLogger) entry(level logrus.Level, icon string, fields logrus.Fields, format string, args ...interface{}) *LogEntry {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &LogEntry{
		logger: u,
		msg:    msg,
		level:  level,
		fields: fields,
		icon:   icon,
	}
}

// LogEntry accumulates options before writing to both outputs.
// Use the chainable methods to configure the entry, then call Log(ctx) to execute.
type LogEntry struct {
	logger     *UnifiedLogger
	msg        string
	level      logrus.Level
	fields     logrus.Fields
	icon       string
	prettyOnly bool
	structOnly bool
	err        error
}

// Field adds a structured field (chainable).
// Fields appear in structured logs but not in pretty output.
func (e *LogEntry) Field(key string, value interface{}) *LogEntry {
	e.fields[key] = value
	return e
}

// Err attaches an error (chainable).
func (e *LogEntry) Err(err error) *LogEntry {
	if err != nil {
		e.err = err
		e.fields["error"] = err.Error()
	}
	return e
}

// PrettyOnly skips structured output (chainable).
func (e *LogEntry) PrettyOnly() *LogEntry {
	e.prettyOnly = true
	return e
}

// StructuredOnly skips pretty output (chainable).
func (e *LogEntry) StructuredOnly() *LogEntry {
	e.structOnly = true
	return e
}

// Log executes the log entry, writing to both outputs.
func (e *LogEntry) Log(ctx context.Context) {
	prettyOutput := e.computePrettyOutput()

	showPretty := !e.structOnly
	if e.level == logrus.DebugLevel && !e.logger.verbose {
		showPretty = false
	}
	if showPretty {
		fmt.Fprintln(GetWriter(ctx), prettyOutput)
	}

	if !e.prettyOnly {
		e.logStructured(prettyOutput)
	}
}

// computePrettyOutput generates the styled output string.
func (e *LogEntry) computePrettyOutput() string {
	output := e.msg
	if e.icon != "" {
		output = e.icon + " " + e.msg
	}

	styles := e.logger.pretty.styles
	switch e.level {
	case logrus.WarnLevel:
		return styles.Warning.Render(output)
	case logrus.ErrorLevel:
		return styles.Error.Render(output)
	case logrus.DebugLevel:
		return styles.Debug.Render(output)
	}
	if e.icon == IconSuccess {
		return styles.Success.Render(output)
	}
	return styles.Info.Render(output)
}

// logStructured writes the structured log entry to logrus.
func (e *LogEntry) logStructured(prettyOutput string) {
	// skip: 0=logStructured, 1=Log, 2=actual call site
	if pc, file, line, ok := runtime.Caller(2); ok {
		funcName := ""
		if fn := runtime.FuncForPC(pc); fn != nil {
			funcName = fn.Name()
		}
		e.fields["file"] = fmt.Sprintf("%s:%d", file, line)
		e.fields["func"] = funcName
	}

	e.fields["pretty_text"] = ansiRegex.ReplaceAllString(prettyOutput, "")

	e.logger.structured.WithFields(e.fields).Log(e.level, e.msg)
}

// Component returns the component name for this logger.
func (u *UnifiedLogger) Component() string {
	return u.component
}

// WithStructured returns the underlying logrus entry for direct structured logging.
func (u *UnifiedLogger) WithStructured() *logrus.Entry {
	return u.structured
}

// WithPretty returns the underlying PrettyLogger for direct pretty logging.
func (u *UnifiedLogger) WithPretty() *PrettyLogger {
	return u.pretty
}
