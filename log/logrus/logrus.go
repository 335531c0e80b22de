package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/nvcache"
)

var _ nvcache.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

// New tags every entry with component=nvcache.
func New(l *logrus.Logger) LogrusLogger {
	return LogrusLogger{E: l.WithField("component", "nvcache")}
}

func (l LogrusLogger) Debug(msg string, f nvcache.Fields) { l.with(f).Debug(msg) }
func (l LogrusLogger) Info(msg string, f nvcache.Fields)  { l.with(f).Info(msg) }
func (l LogrusLogger) Warn(msg string, f nvcache.Fields)  { l.with(f).Warn(msg) }
func (l LogrusLogger) Error(msg string, f nvcache.Fields) { l.with(f).Error(msg) }

// with maps "err" onto logrus' own error key.
func (l LogrusLogger) with(f nvcache.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	out := make(logrus.Fields, len(f))
	for k, v := range f {
		if k == "err" {
			k = logrus.ErrorKey
		}
		out[k] = v
	}
	return l.E.WithFields(out)
}
