package scheduler

import (
	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
)

// logger routes gocron's own messages into the scheduler logger.
// Info is reported as debug, gocron logs every job run at that level.
type logger struct {
	log *log.Logger
}

var _ gocron.Logger = (*logger)(nil)

func newLogger(l *log.Logger) *logger {
	if l == nil {
		l = log.Default()
	}
	return &logger{log: l.WithPrefix("scheduler").With("source", "gocron")}
}

func (l *logger) Debug(msg string, args ...any) { l.log.Debug(msg, args...) }
func (l *logger) Info(msg string, args ...any)  { l.log.Debug(msg, args...) }
func (l *logger) Warn(msg string, args ...any)  { l.log.Warn(msg, args...) }
func (l *logger) Error(msg string, args ...any) { l.log.Error(msg, args...) }
