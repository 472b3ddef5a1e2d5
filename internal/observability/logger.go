package observability

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger installs the process-wide logger for a nodelet daemon.
// Output goes to stderr so stdout stays clean for shell pipelines.
func InitLogger(component string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    os.Getenv("NO_COLOR") != "",
	}
	ctx := zerolog.New(output).With().
		Timestamp().
		Str("component", component)
	if host, err := os.Hostname(); err == nil {
		ctx = ctx.Str("host", host)
	}
	logger := ctx.Logger()
	log.Logger = logger
	return logger
}
