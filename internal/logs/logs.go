package logs

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New builds the process logger: JSON lines appended to logFilePath and,
// when withConsole is set, a human readable copy on stdout.
func New(logFilePath string, withConsole bool) zerolog.Logger {
	var writer io.Writer = os.Stdout

	if logFilePath != "" {
		logFile, err := os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
		if err != nil {
			log.Fatal().Err(err).Str("path", logFilePath).Msg("cannot open log file")
		}
		writer = logFile
		if withConsole {
			writer = zerolog.MultiLevelWriter(logFile, consoleWriter())
		}
	} else if withConsole {
		writer = consoleWriter()
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(Level(os.Getenv("LOG_LEVEL")))

	logger := zerolog.New(writer).With().
		Timestamp().
		Caller().
		Logger()

	log.Logger = logger

	return logger
}

// Level maps a LOG_LEVEL value to a zerolog level, info when empty or unknown.
func Level(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func consoleWriter() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
}
