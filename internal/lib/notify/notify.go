// Package notify collects user-facing notifications raised while handling a request.
package notify

import (
	"log/slog"
	"sync"
)

const (
	LevelSuccess = "success"
	LevelError   = "error"
)

type Notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Recorder keeps notifications in the order they were raised.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Success(message string) {
	r.add(LevelSuccess, message)
}

func (r *Recorder) Error(message string) {
	r.add(LevelError, message)
}

func (r *Recorder) add(level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, Notification{Level: level, Message: message})
}

func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Notification, len(r.items))
	copy(out, r.items)

	return out
}

// Logger prints notifications, used by the terminal browser.
type Logger struct {
	Log *slog.Logger
}

func (l Logger) Success(message string) {
	l.Log.Info(message)
}

func (l Logger) Error(message string) {
	l.Log.Error(message)
}
