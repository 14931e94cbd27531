package logging

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Setup configures the process-wide logrus logger from config values.
// Production gets JSON output for log shipping; development keeps the
// human-readable text formatter.
func Setup(logLevel, environment string) {
	level, err := logrus.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// WithComponent returns a logger tagged with the component name.
func WithComponent(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}
