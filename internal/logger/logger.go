package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var (
	levelVar slog.LevelVar
	current  atomic.Pointer[slog.Logger]
)

func init() {
	levelVar.Set(slog.LevelInfo)
	current.Store(textLogger(os.Stdout))
}

func textLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: &levelVar}))
}

// SetOutput replaces the destination of all subsequent log lines.
func SetOutput(w io.Writer) {
	current.Store(textLogger(w))
}

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// SetLevel accepts debug/info/warn/error; anything else falls back to info.
func SetLevel(level string) {
	lv, ok := levelNames[strings.ToLower(strings.TrimSpace(level))]
	if !ok {
		lv = slog.LevelInfo
	}
	levelVar.Set(lv)
}

func Debugf(format string, v ...any) { current.Load().Debug(fmt.Sprintf(format, v...)) }
func Infof(format string, v ...any)  { current.Load().Info(fmt.Sprintf(format, v...)) }
func Warnf(format string, v ...any)  { current.Load().Warn(fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...any) { current.Load().Error(fmt.Sprintf(format, v...)) }
