package cmdlog

import (
	"time"

	"github.com/rs/zerolog"

	"botcheck/internal/metrics"
)

// Run executes f as the named command, counting runs and failures and
// logging the outcome.
func Run(log zerolog.Logger, cmd string, f func() error) error {
	metrics.IncCommandRun(cmd)
	start := time.Now()
	err := f()
	if err != nil {
		metrics.IncCommandError(cmd)
		log.Error().Err(err).Str("command", cmd).Msg(cmd + "_error")
	} else {
		log.Info().Str("command", cmd).Dur("took", time.Since(start)).Msg(cmd + "_ok")
	}
	return err
}
