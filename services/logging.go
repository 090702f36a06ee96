package services

import (
	"io"

	"github.com/sirupsen/logrus"
)

var discardLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

// orDiscard lets callers pass a nil entry when they don't care about logs.
func orDiscard(entry *logrus.Entry) *logrus.Entry {
	if entry != nil {
		return entry
	}
	return logrus.NewEntry(discardLogger)
}
