// Package timing provides per-request stage measurement for compd.
package timing

import (
	"fmt"
	"time"
)

// Timer tracks elapsed time across the stages of one completion request.
type Timer struct {
	start time.Time
	marks map[string]time.Duration
	order []string
}

// NewTimer creates a timer starting now.
func NewTimer() *Timer {
	return &Timer{
		start: time.Now(),
		marks: make(map[string]time.Duration),
		order: make([]string, 0),
	}
}

// Mark records a checkpoint with a label and returns elapsed time so far.
func (t *Timer) Mark(label string) time.Duration {
	elapsed := time.Since(t.start)
	t.marks[label] = elapsed
	t.order = append(t.order, label)
	return elapsed
}

// Elapsed returns total elapsed time since timer creation.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Get returns the duration recorded for a specific mark.
func (t *Timer) Get(label string) (time.Duration, bool) {
	d, ok := t.marks[label]
	return d, ok
}

// Summary returns a one-line breakdown of all stages in milliseconds.
func (t *Timer) Summary() string {
	total := t.Elapsed()
	summary := fmt.Sprintf("total: %.3fms", float64(total.Microseconds())/1000.0)

	if len(t.marks) > 0 {
		summary += " ("
		for i, label := range t.order {
			dur := t.marks[label]
			if i > 0 {
				summary += ", "
			}
			summary += fmt.Sprintf("%s: %.3fms", label, float64(dur.Microseconds())/1000.0)
		}
		summary += ")"
	}

	return summary
}
