// Package logger defines the logging contract used throughout
// mummi-workflow-core. Concrete backends (pkg/logger/logrus) implement
// this interface; callers depend only on it, never on a specific
// logging library.
package logger

import "github.com/llnl/mummi-workflow-core/pkg/logger/conf"

// Logger is the minimal structured-logging surface the rest of the
// tree codes against.
type Logger interface {
	Log(level conf.Level, v ...interface{})
	Logf(level conf.Level, format string, v ...interface{})
	WithFields(fields map[string]interface{}) Logger
}
