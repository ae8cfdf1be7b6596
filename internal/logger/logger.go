package logger

import (
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Field names shared across components.
const (
	Component = "component"
	UserID    = "user_id"
	PostID    = "post_id"
	Path      = "path"
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

// Init configures the global zerolog logger. In gin debug mode it writes a
// human-readable console format, otherwise JSON to stdout.
func Init(level string, debug bool) {
	var out io.Writer = os.Stdout
	if debug {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// New returns a child of the global logger tagged with component=name.
func New(name string) zerolog.Logger {
	return log.With().Str(Component, name).Logger()
}

var emailRegex = regexp.MustCompile(`([a-zA-Z0-9._%+-])[a-zA-Z0-9._%+-]*@([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`)

// MaskEmail keeps the first character and the domain of any email in s.
func MaskEmail(s string) string {
	return emailRegex.ReplaceAllString(s, "$1***@$2")
}
