package testutil

import (
	"sync/atomic"
	"time"
)

// StepSchedule implements cron.Schedule with a fixed delay, allowing tick
// sources to be tested with sub-second periods.
type StepSchedule struct {
	Step  time.Duration
	calls atomic.Int32
}

// Next returns t advanced by Step.
func (s *StepSchedule) Next(t time.Time) time.Time {
	s.calls.Add(1)
	return t.Add(s.Step)
}

// Calls returns how many times Next was invoked.
func (s *StepSchedule) Calls() int {
	return int(s.calls.Load())
}

// ExhaustedSchedule implements cron.Schedule that never fires again,
// mirroring cron's zero-time result for impossible expressions.
type ExhaustedSchedule struct{}

// Next always returns the zero time.
func (ExhaustedSchedule) Next(time.Time) time.Time {
	return time.Time{}
}
