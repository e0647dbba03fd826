// Package application holds the use cases: credentials, sessions, profiles,
// tasks and the tab lifecycle. Services depend on repository interfaces and
// return *apperror.Error values.
package application

import (
	"io"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

func orNopLogger(l *logrus.Logger) *logrus.Logger {
	if l != nil {
		return l
	}
	nop := logrus.New()
	nop.SetOutput(io.Discard)
	return nop
}

func orRealClock(c clockwork.Clock) clockwork.Clock {
	if c != nil {
		return c
	}
	return clockwork.NewRealClock()
}

// utcNow keeps stored timestamps in one zone so conditional writes on
// updatedAt compare identical strings.
func utcNow(c clockwork.Clock) time.Time {
	return c.Now().UTC()
}
