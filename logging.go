package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	colorRed     = 31
	colorGreen   = 32
	colorYellow  = 33
	colorMagenta = 35

	colorBold = 1
)

func colorize(s interface{}, c int, disabled bool) string {
	if disabled {
		return fmt.Sprintf("%s", s)
	}
	return fmt.Sprintf("\x1b[%dm%v\x1b[0m", c, s)
}

type levelStyle struct {
	label  string
	colors []int
}

var levelStyles = map[string]levelStyle{
	zerolog.LevelTraceValue: {"TRACE", []int{colorMagenta}},
	zerolog.LevelDebugValue: {"DEBUG", []int{colorYellow}},
	zerolog.LevelInfoValue:  {"INFO ", []int{colorGreen}},
	zerolog.LevelWarnValue:  {"WARN ", []int{colorRed}},
	zerolog.LevelErrorValue: {"ERROR", []int{colorRed, colorBold}},
	zerolog.LevelFatalValue: {"FATAL", []int{colorRed, colorBold}},
	zerolog.LevelPanicValue: {"PANIC", []int{colorRed, colorBold}},
}

func formatLevel(noColor bool) zerolog.Formatter {
	return func(i interface{}) string {
		ll, ok := i.(string)
		if !ok {
			if i == nil {
				return fmt.Sprintf("| %s |", colorize("???  ", colorBold, noColor))
			}
			return fmt.Sprintf("| %s |", strings.ToUpper(fmt.Sprintf("%-5s", i))[0:5])
		}

		style, known := levelStyles[ll]
		if !known {
			return fmt.Sprintf("| %s |", colorize(ll, colorBold, noColor))
		}
		l := style.label
		for _, c := range style.colors {
			l = colorize(l, c, noColor)
		}
		return fmt.Sprintf("| %s |", l)
	}
}

// lockedWriter serialises writes so concurrent log lines never interleave.
type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

var stdoutMu sync.Mutex

func (lw lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

func newConsoleWriter(out io.Writer, noColor bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:         out,
		NoColor:     noColor,
		TimeFormat:  time.RFC3339,
		FormatLevel: formatLevel(noColor),
	}
}

// InitializeLogger points the global logger at a colourised stdout console
// and sets the global level.
func InitializeLogger(level zerolog.Level, noColor bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(level)

	out := lockedWriter{mu: &stdoutMu, w: colorable.NewColorable(os.Stdout)}
	log.Logger = log.Output(newConsoleWriter(out, noColor))
}

// LoggerMiddleware logs one access line per request and turns handler
// panics into 500s.
// Adapted from https://github.com/ironstar-io/chizerolog
func LoggerMiddleware(logger *zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			log := logger.With().
				Str("request_id", middleware.GetReqID(r.Context())).
				Logger()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			t1 := time.Now()
			defer func() {
				if rec := recover(); rec != nil {
					log.Error().
						Interface("recover_info", rec).
						Bytes("debug_stack", debug.Stack()).
						Msg("HTTP endpoint panic")

					http.Error(ww, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}

				event := log.Info()
				if ww.Status() >= http.StatusInternalServerError {
					event = log.Warn()
				}
				event.
					Str("method", r.Method).
					Str("url", r.URL.Path).
					Str("remote_ip", r.RemoteAddr).
					Int("status", ww.Status()).
					Int("bytes_out", ww.BytesWritten()).
					Dur("latency", time.Since(t1)).
					Msg("HTTP request")
			}()

			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}
