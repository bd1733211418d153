// Package logrus adapts sirupsen/logrus to the logger.Logger contract.
package logrus

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/llnl/mummi-workflow-core/pkg/logger"
	"github.com/llnl/mummi-workflow-core/pkg/logger/conf"
)

type Wrapper struct {
	entry *logrus.Entry
}

func NewLogrusWrapper(c *conf.LogConfig) (logger.Logger, error) {
	l := logrus.New()

	lvl, err := logrus.ParseLevel(string(c.Level))
	if err != nil {
		return nil, err
	}
	l.SetLevel(lvl)

	switch c.Formatter {
	case conf.JSONFormater:
		l.SetFormatter(&logrus.JSONFormatter{})
	case conf.StructuredFormater:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	switch c.Output {
	case "", "stdout":
		l.SetOutput(os.Stdout)
	case "stderr":
		l.SetOutput(os.Stderr)
	default:
		f, err := os.OpenFile(c.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		l.SetOutput(f)
	}

	return &Wrapper{entry: logrus.NewEntry(l)}, nil
}

func (w *Wrapper) Log(level conf.Level, v ...interface{}) {
	w.entry.Log(toLogrusLevel(level), v...)
}

func (w *Wrapper) Logf(level conf.Level, format string, v ...interface{}) {
	w.entry.Logf(toLogrusLevel(level), format, v...)
}

func (w *Wrapper) WithFields(fields map[string]interface{}) logger.Logger {
	return &Wrapper{entry: w.entry.WithFields(logrus.Fields(fields))}
}

func toLogrusLevel(level conf.Level) logrus.Level {
	switch level {
	case conf.TraceLevel:
		return logrus.TraceLevel
	case conf.DebugLevel:
		return logrus.DebugLevel
	case conf.WarnLevel:
		return logrus.WarnLevel
	case conf.ErrorLevel:
		return logrus.ErrorLevel
	case conf.FatalLevel:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}
