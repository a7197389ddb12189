// Package logging builds the process logger.  It uses gommon's logger so
// application lines share the format and level switch of echo's own output.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/labstack/gommon/log"
)

const jsonHeader = `{"time":"${time_rfc3339}","level":"${level}","prefix":"${prefix}","file":"${short_file}","line":"${line}"}`

// New returns a logger with the given prefix.  level is one of debug, info,
// warn, error or off; anything else means info.  format "json" switches the
// header to a JSON object.
func New(prefix, level, format string) *log.Logger {
	return NewWithOutput(os.Stdout, prefix, level, format)
}

// NewWithOutput is New with an explicit writer.
func NewWithOutput(w io.Writer, prefix, level, format string) *log.Logger {
	l := log.New(prefix)
	l.SetOutput(w)
	l.SetLevel(ParseLevel(level))
	if strings.EqualFold(format, "json") {
		l.SetHeader(jsonHeader)
	}
	return l
}

// ParseLevel maps DEBUG, INFO, WARN, ERROR and OFF to a gommon level.
// Anything else is INFO.
func ParseLevel(s string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}
