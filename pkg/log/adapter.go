package log

import "github.com/sirupsen/logrus"

// BadgerAdapter implements badger.Logger on top of logrus so the drift
// index logs through the application logger instead of stderr.
type BadgerAdapter struct {
	*logrus.Entry // Embed logrus Entry
}

// NewBadgerAdapter creates a new adapter
func NewBadgerAdapter(entry *logrus.Entry) *BadgerAdapter {
	return &BadgerAdapter{entry}
}

// Errorf logs an error message
func (l *BadgerAdapter) Errorf(f string, v ...interface{}) { l.Entry.Errorf(f, v...) }

// Warningf logs a warning message
func (l *BadgerAdapter) Warningf(f string, v ...interface{}) { l.Entry.Warningf(f, v...) }

// Infof logs an info message
func (l *BadgerAdapter) Infof(f string, v ...interface{}) { l.Entry.Infof(f, v...) }

// Debugf logs a debug message
func (l *BadgerAdapter) Debugf(f string, v ...interface{}) { l.Entry.Debugf(f, v...) }
