// Package debug builds the process logger.
package debug

import (
	"fmt"
	"io"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
)

// ProcessID tags every log line written by this process.
var ProcessID = xid.New().String()

type LoggerOptions struct {
	Level     zerolog.Level
	WithColor bool
	// Console selects the human readable writer over JSON lines.
	Console bool
}

// NewLogger returns a logger writing to w with the time and caller hooks installed.
func NewLogger(w io.Writer, opts LoggerOptions) zerolog.Logger {
	if opts.Console {
		w = zerolog.ConsoleWriter{Out: w, NoColor: !opts.WithColor}
	}
	return zerolog.New(w).
		Level(opts.Level).
		With().
		Str("pid", ProcessID).
		Logger().
		Hook(TimeHook{}).
		Hook(CallerHook{WithColor: opts.WithColor})
}

// TimeHook stamps events with millisecond precision.
type TimeHook struct {
	Format string
}

func (t TimeHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	format := t.Format
	if format == "" {
		format = "2006-01-02T15:04:05.000Z07:00"
	}
	e.Str("time", time.Now().Format(format))
}

// CallerHook records the package, file and line that emitted the event.
type CallerHook struct {
	WithColor bool
}

func (c CallerHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	pc, file, line, ok := runtime.Caller(skipFrames(e) + 3)
	if !ok {
		return
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return
	}
	pkg, _ := SplitFuncName(fn.Name())
	e.Str("caller", FormatCaller(pkg, file, line, c.WithColor))
}

// skipFrames reads the frames an event asked to skip with CallerSkipFrame. zerolog keeps
// the count unexported.
func skipFrames(e *zerolog.Event) int {
	v := reflect.ValueOf(e).Elem()
	field := v.FieldByName("skipFrame")
	if field.IsValid() {
		return int(field.Int())
	}
	return 0
}

// SplitFuncName splits a runtime function name into its package path and function,
// keeping the receiver with the function.
func SplitFuncName(name string) (pkg, function string) {
	lastSlash := max(strings.LastIndexByte(name, '/'), 0)
	dot := strings.IndexByte(name[lastSlash:], '.')
	if dot < 0 {
		return name, ""
	}
	dot += lastSlash

	pkg, function = name[:dot], name[dot+1:]
	if before, after, ok := strings.Cut(pkg, ".("); ok {
		pkg = before
		function = "(" + after + "." + function
	}
	return pkg, function
}

func FormatCaller(pkg, path string, line int, colorize bool) string {
	file := filepath.Base(path)
	if !colorize {
		return fmt.Sprintf("%s:%s:%d", pkg, file, line)
	}
	sep := color.New(color.Faint).Sprint(":")
	return pkg + sep + color.New(color.Bold).Sprint(file) + sep + color.New(color.FgHiRed, color.Bold).Sprintf("%d", line)
}
