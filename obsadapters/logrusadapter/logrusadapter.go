// Package logrusadapter implements shared.Logger over a *logrus.Logger, so
// callers who already standardized on logrus for structured logging can
// wire it straight into any coop primitive's WithLogger option instead of
// adopting the no-op default.
package logrusadapter

import (
	"github.com/sirupsen/logrus"

	"github.com/kolosys/coop/shared"
)

// Adapter wraps a *logrus.Logger to satisfy shared.Logger.
type Adapter struct {
	log *logrus.Logger
}

// New wraps log as a shared.Logger. A nil log uses logrus's standard
// logger.
func New(log *logrus.Logger) *Adapter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Adapter{log: log}
}

func fields(kv []any) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		f[key] = kv[i+1]
	}
	return f
}

func (a *Adapter) Debug(msg string, kv ...any) {
	a.log.WithFields(fields(kv)).Debug(msg)
}

func (a *Adapter) Info(msg string, kv ...any) {
	a.log.WithFields(fields(kv)).Info(msg)
}

func (a *Adapter) Warn(msg string, kv ...any) {
	a.log.WithFields(fields(kv)).Warn(msg)
}

func (a *Adapter) Error(msg string, err error, kv ...any) {
	a.log.WithFields(fields(kv)).WithError(err).Error(msg)
}

var _ shared.Logger = (*Adapter)(nil)
