package upload

import (
	"fmt"
	"math"
	"mime"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	kb = 1024
	mb = 1024 * kb
	gb = 1024 * mb
)

// encodings maps compression suffixes to the encoding reported when the
// inner file type is unknown.
var encodings = map[string]string{
	".gz":  "gzip",
	".bz2": "bzip2",
	".xz":  "xz",
	".br":  "br",
	".Z":   "compress",
}

// FormatDuration renders seconds as "1 hour, 0 minutes, 5 seconds". Lower
// units are shown once any lower unit is non zero.
func FormatDuration(seconds int) string {
	if seconds < 60 {
		return pluralize(seconds, "second")
	}

	m, s := seconds/60, seconds%60
	if seconds < 3600 {
		parts := []string{pluralize(m, "minute")}
		if s > 0 {
			parts = append(parts, pluralize(s, "second"))
		}
		return strings.Join(parts, ", ")
	}

	h, m := m/60, m%60
	var parts []string
	if seconds < 86400 {
		parts = append(parts, pluralize(h, "hour"))
	} else {
		d, h := h/24, h%24
		parts = append(parts, pluralize(d, "day"))
		if h > 0 || m > 0 || s > 0 {
			parts = append(parts, pluralize(h, "hour"))
		}
	}
	if m > 0 || s > 0 {
		parts = append(parts, pluralize(m, "minute"))
	}
	if s > 0 {
		parts = append(parts, pluralize(s, "second"))
	}
	return strings.Join(parts, ", ")
}

// FormatSpeed renders a transfer rate rounded to two decimals.
func FormatSpeed(bytesPerSecond float64) string {
	value, unit := bytesPerSecond, "B/s"
	switch {
	case value >= gb:
		value, unit = value/gb, "GB/s"
	case value >= mb:
		value, unit = value/mb, "MB/s"
	case value >= kb:
		value, unit = value/kb, "KB/s"
	}

	rounded := strconv.FormatFloat(math.Round(value*100)/100, 'f', -1, 64)
	if !strings.Contains(rounded, ".") {
		rounded += ".0"
	}
	return rounded + " " + unit
}

// MimeType guesses the type of a file from its extension. A compressed file
// of unknown inner type reports its encoding instead ("gzip" for x.fastq.gz).
func MimeType(name string) string {
	ext := filepath.Ext(name)
	if encoding, ok := encodings[ext]; ok {
		inner := strings.TrimSuffix(name, ext)
		if t := mime.TypeByExtension(filepath.Ext(inner)); filepath.Ext(inner) != "" && t != "" {
			return t
		}
		return encoding
	}
	if ext == "" {
		return ""
	}
	return mime.TypeByExtension(ext)
}

func pluralize(value int, unit string) string {
	if value == 1 {
		return fmt.Sprintf("%d %s", value, unit)
	}
	return fmt.Sprintf("%d %ss", value, unit)
}
