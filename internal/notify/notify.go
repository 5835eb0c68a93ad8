// Package notify carries transient user notifications (toasts).
package notify

import (
	"fmt"
	"io"
	"sync"
)

// Level is the notification kind.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Notification is one message shown to the user.
type Notification struct {
	Level   Level
	Message string
}

// Notifier shows notifications.
type Notifier interface {
	Success(msg string)
	Info(msg string)
	Error(msg string)
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }
func (r *Recorder) Info(msg string)    { r.add(LevelInfo, msg) }
func (r *Recorder) Error(msg string)   { r.add(LevelError, msg) }

func (r *Recorder) add(l Level, msg string) {
	r.mu.Lock()
	r.items = append(r.items, Notification{Level: l, Message: msg})
	r.mu.Unlock()
}

// All returns a copy of recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Count returns the number of notifications at level l.
func (r *Recorder) Count(l Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, it := range r.items {
		if it.Level == l {
			n++
		}
	}
	return n
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

// Writer prints notifications as terminal lines.
type Writer struct {
	W  io.Writer
	mu sync.Mutex
}

func (w *Writer) Success(msg string) { w.print("✓", msg) }
func (w *Writer) Info(msg string)    { w.print("i", msg) }
func (w *Writer) Error(msg string)   { w.print("✗", msg) }

func (w *Writer) print(mark, msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.W, "%s %s\n", mark, msg)
}
