package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/imtiler/pkg/observability"
)

// newLogger creates a logger with short timestamps ("14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the elapsed time of an operation when it is done.
// It is not safe for concurrent use.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "placed 25 tiles (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// logHooks reports sampler events on the debug log.
type logHooks struct {
	logger *log.Logger
}

func newLogHooks(l *log.Logger) observability.TilerHooks {
	return logHooks{logger: l}
}

func (h logHooks) OnCollect(sampler string, requested, collected int, d time.Duration) {
	h.logger.Debug("collected", "sampler", sampler, "requested", requested, "collected", collected, "duration", d.Round(time.Microsecond))
}

func (h logHooks) OnReinit(sampler string, coverage float64) {
	h.logger.Debug("reinitialised", "sampler", sampler, "coverage", coverage)
}

func (h logHooks) OnExhausted(sampler string, collected, requested int) {
	h.logger.Debug("exhausted", "sampler", sampler, "collected", collected, "requested", requested)
}
