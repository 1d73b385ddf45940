package pkg

import (
	"io"
	"log"
	"os"
)

type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelErrOnly
	LogLevelInfo
	LogLevelDebug
)

var log_level = LogLevelErrOnly

func SetLogLevel(level LogLevel) {
	log_level = level

	error_logger.SetOutput(io.Discard)
	fatal_logger.SetOutput(io.Discard)
	warn_logger.SetOutput(io.Discard)
	info_logger.SetOutput(io.Discard)
	debug_logger.SetOutput(io.Discard)

	if level >= LogLevelErrOnly {
		error_logger.SetOutput(os.Stderr)
		fatal_logger.SetOutput(os.Stderr)
	}
	if level >= LogLevelInfo {
		warn_logger.SetOutput(os.Stdout)
		info_logger.SetOutput(os.Stdout)
	}
	if level >= LogLevelDebug {
		debug_logger.SetOutput(os.Stdout)
	}
}

func GetLogLevel() LogLevel { return log_level }

// ParseLogLevel maps the -log flag values onto a level; unknown values
// fall back to LogLevelErrOnly.
func ParseLogLevel(s string) LogLevel {
	switch s {
	case "none":
		return LogLevelNone
	case "info":
		return LogLevelInfo
	case "debug":
		return LogLevelDebug
	}
	return LogLevelErrOnly
}

var (
	info_logger  = log.New(io.Discard, "INFO: ", log.Lshortfile|log.LstdFlags)
	error_logger = log.New(os.Stderr, "ERROR: ", log.Lshortfile|log.LstdFlags)
	fatal_logger = log.New(os.Stderr, "FATAL: ", log.Lshortfile|log.LstdFlags)
	warn_logger  = log.New(io.Discard, "WARN: ", log.Lshortfile|log.LstdFlags)
	debug_logger = log.New(io.Discard, "DEBUG: ", log.Lshortfile|log.LstdFlags)
)

var (
	InfoLog  = info_logger.Println
	ErrorLog = error_logger.Println
	FatalLog = fatal_logger.Fatalln
	WarnLog  = warn_logger.Println
	DebugLog = debug_logger.Println
)
