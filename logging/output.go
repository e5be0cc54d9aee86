package logging

import (
	"context"
	"io"
	"os"
	"sync"
)

// output is the process wide destination of pretty lines and of the stderr
// log sink. Commands swap it per run, tests swap it per case.
var output = &swappableWriter{w: os.Stderr}

type swappableWriter struct {
	mu sync.RWMutex
	w  io.Writer
}

func (s *swappableWriter) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.w.Write(p)
}

// SetGlobalOutput redirects pretty output and the stderr log sink.
func SetGlobalOutput(w io.Writer) {
	output.mu.Lock()
	defer output.mu.Unlock()
	output.w = w
}

// GetGlobalOutput returns the shared writer. Writes always reach the writer
// set last, even through loggers created earlier.
func GetGlobalOutput() io.Writer {
	return output
}

type writerKey struct{}

// WithWriter attaches the pretty output writer of one run to ctx.
func WithWriter(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, writerKey{}, w)
}

// GetWriter returns the writer attached to ctx, or the shared writer.
func GetWriter(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(writerKey{}).(io.Writer); ok && w != nil {
		return w
	}
	return output
}
