// Package notify holds the view-layer collaborators the client core reports
// to: a transient notification sink and the login navigator.
package notify

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Sink receives transient user-facing notifications.
type Sink interface {
	Success(message string)
	Error(message string)
}

// Navigator is asked to move the user to the login entry point.
type Navigator interface {
	ToLogin()
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func()

func (f NavigatorFunc) ToLogin() { f() }

// Discard drops every notification.
var Discard Sink = discard{}

type discard struct{}

func (discard) Success(string) {}
func (discard) Error(string)   {}

// WriterSink prints notifications to w, one per line.
type WriterSink struct {
	mu  sync.Mutex
	w   io.Writer
	log *zap.Logger
}

func NewWriterSink(w io.Writer, log *zap.Logger) *WriterSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &WriterSink{w: w, log: log}
}

func (s *WriterSink) Success(message string) {
	s.print("✔", message)
	s.log.Debug("notification", zap.String("level", "success"), zap.String("message", message))
}

func (s *WriterSink) Error(message string) {
	s.print("✖", message)
	s.log.Warn("notification", zap.String("level", "error"), zap.String("message", message))
}

func (s *WriterSink) print(prefix, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "%s %s\n", prefix, message)
}
