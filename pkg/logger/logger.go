package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logg = newDefault()

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)
	l.SetOutput(os.Stdout)
	return l
}

// Get returns the process-wide logger.
func Get() *logrus.Logger {
	return logg
}

// Configure sets the level from a string such as "debug" or "warn".
// Unknown levels keep the current one.
func Configure(level string) {
	if lvl, err := logrus.ParseLevel(level); err == nil {
		logg.SetLevel(lvl)
	}
}

// LogError writes err with the module/function/context fields used across the services.
func LogError(moduleName, funcName, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	logg.WithFields(fields).Error(err.Error())
}
