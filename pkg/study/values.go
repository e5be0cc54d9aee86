package study

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const dayFirstLayout = "02/01/2006"

// GetValue returns the column named key of line. Missing columns and the
// placeholders "-" and "N/A" are reported as absent.
func GetValue(key string, header, line []string) (string, bool) {
	if len(header) == 0 {
		return "", false
	}
	index := -1
	for i, h := range header {
		if h == key {
			index = i
			break
		}
	}
	if index < 0 || index >= len(line) {
		return "", false
	}
	value := line[index]
	if value == "" || value == "-" || value == "N/A" {
		return "", false
	}
	return value, true
}

// ParseDate parses dd/mm/yyyy first and any other common layout after.
// Dates without a zone are UTC.
func ParseDate(value string) (time.Time, error) {
	if t, err := time.ParseInLocation(dayFirstLayout, value, time.UTC); err == nil {
		return t, nil
	}
	return dateparse.ParseIn(value, time.UTC)
}

// splitHeader turns a "#col1\tcol2" line into lower-cased column names.
func splitHeader(row string) []string {
	row = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(row, "#")))
	return strings.Split(row, "\t")
}

func splitRow(row string) []string {
	return strings.Split(strings.TrimSpace(row), "\t")
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
