package pkg

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// logSink routes logr output into the leveled loggers above.
// V(0) goes to the info logger, V(1) and up to the debug logger.
type logSink struct {
	funcr.Formatter
}

func (s *logSink) Init(info logr.RuntimeInfo) { s.Formatter.Init(info) }

func (s *logSink) Enabled(level int) bool {
	if level > 0 {
		return log_level >= LogLevelDebug
	}
	return log_level >= LogLevelInfo
}

func (s *logSink) Info(level int, msg string, kv ...any) {
	prefix, args := s.FormatInfo(level, msg, kv)
	if level > 0 {
		debug_logger.Output(3, format(prefix, args))
		return
	}
	info_logger.Output(3, format(prefix, args))
}

func (s *logSink) Error(err error, msg string, kv ...any) {
	prefix, args := s.FormatError(err, msg, kv)
	error_logger.Output(3, format(prefix, args))
}

func (s *logSink) WithValues(kv ...any) logr.LogSink {
	c := *s
	c.Formatter.AddValues(kv)
	return &c
}

func (s *logSink) WithName(name string) logr.LogSink {
	c := *s
	c.Formatter.AddName(name)
	return &c
}

func format(prefix, args string) string {
	if prefix == "" {
		return args
	}
	return prefix + " " + args
}

// Logr returns a logr.Logger writing through the package loggers.
// The current log level is checked on every call, so SetLogLevel applies
// to loggers handed out earlier.
func Logr() logr.Logger {
	return logr.New(&logSink{funcr.NewFormatter(funcr.Options{Verbosity: 1})})
}
