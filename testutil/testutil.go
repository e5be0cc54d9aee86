package testutil

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/nig-upload/logging"
)

// FastqContent is written into generated dataset files.
const FastqContent = "@read1\nACGTACGTAC\n+\nIIIIIIIIII\n"

// StudyBuilder lays out a study directory on disk.
type StudyBuilder struct {
	t   *testing.T
	Dir string
}

// NewStudy creates an empty study directory named name under root.
func NewStudy(t *testing.T, root, name string) *StudyBuilder {
	t.Helper()

	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return &StudyBuilder{t: t, Dir: dir}
}

// Dataset creates a dataset directory holding files. Files ending in
// .fastq.gz get FastqContent.
func (b *StudyBuilder) Dataset(name string, files ...string) *StudyBuilder {
	b.t.Helper()

	dir := filepath.Join(b.Dir, name)
	require.NoError(b.t, os.MkdirAll(dir, 0o755))
	for _, f := range files {
		content := ""
		if strings.HasSuffix(f, ".fastq.gz") {
			content = FastqContent
		}
		WriteFile(b.t, filepath.Join(dir, f), content)
	}
	return b
}

// Pedigree writes pedigree.txt with one line per row.
func (b *StudyBuilder) Pedigree(rows ...string) *StudyBuilder {
	b.t.Helper()
	WriteFile(b.t, filepath.Join(b.Dir, "pedigree.txt"), strings.Join(rows, "\n")+"\n")
	return b
}

// Technical writes technical.txt with one line per row.
func (b *StudyBuilder) Technical(rows ...string) *StudyBuilder {
	b.t.Helper()
	WriteFile(b.t, filepath.Join(b.Dir, "technical.txt"), strings.Join(rows, "\n")+"\n")
	return b
}

// File writes an arbitrary file relative to the study directory.
func (b *StudyBuilder) File(rel, content string) *StudyBuilder {
	b.t.Helper()
	WriteFile(b.t, filepath.Join(b.Dir, rel), content)
	return b
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to create file %s: %v", path, err)
	}
}

// RandomString generates a random string of the specified length
func RandomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)[:length]
}

// LogCapture is a unified logger writing into buffers.
type LogCapture struct {
	Logger     *logging.UnifiedLogger
	Ctx        context.Context
	Pretty     *bytes.Buffer
	Structured *bytes.Buffer
}

// NewLogCapture returns a logger whose pretty output goes to Pretty (through
// Ctx) and whose JSON structured output goes to Structured.
func NewLogCapture(t *testing.T) *LogCapture {
	t.Helper()

	pretty := &bytes.Buffer{}
	structured := &bytes.Buffer{}

	logger := logrus.New()
	logger.SetOutput(structured)
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &LogCapture{
		Logger:     logging.NewUnifiedLoggerWith("test", logger.WithField("component", "test")),
		Ctx:        logging.WithWriter(context.Background(), pretty),
		Pretty:     pretty,
		Structured: structured,
	}
}
