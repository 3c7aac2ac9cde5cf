package llm

import (
	"fmt"
	"strings"
	"time"
)

// Attempt records one model attempt within a continuation call. Attempts are
// independent and stateless; the log exists only for the aggregate error and
// debug output of the call that owns it.
type Attempt struct {
	Model    string
	Err      error // nil on success
	Duration time.Duration
}

// AttemptLog collects the attempts of a single continuation call.
// Not safe for concurrent use; each call owns its own log.
type AttemptLog struct {
	attempts []Attempt
}

// Record appends an attempt.
func (l *AttemptLog) Record(model string, err error, duration time.Duration) {
	l.attempts = append(l.attempts, Attempt{Model: model, Err: err, Duration: duration})
}

// Len returns the number of recorded attempts.
func (l *AttemptLog) Len() int {
	return len(l.attempts)
}

// Last returns the most recent attempt, or a zero Attempt when empty.
func (l *AttemptLog) Last() Attempt {
	if len(l.attempts) == 0 {
		return Attempt{}
	}
	return l.attempts[len(l.attempts)-1]
}

// LastErr returns the most recent attempt's error, which names the failure
// in the aggregate error when the whole chain is exhausted.
func (l *AttemptLog) LastErr() error {
	return l.Last().Err
}

// Summary renders the log for debug logging: "model: outcome" per attempt.
func (l *AttemptLog) Summary() string {
	if len(l.attempts) == 0 {
		return "no attempts"
	}
	parts := make([]string, len(l.attempts))
	for i, a := range l.attempts {
		outcome := "ok"
		if a.Err != nil {
			outcome = a.Err.Error()
		}
		parts[i] = fmt.Sprintf("%s: %s (%s)", a.Model, outcome, a.Duration.Round(time.Millisecond))
	}
	return strings.Join(parts, "; ")
}
