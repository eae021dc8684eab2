package logger

import (
	log "github.com/sirupsen/logrus"
)

// Init configures the global logrus logger.
func Init(level string) {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("invalid log level %q, defaulting to info", level)
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
}
