package app

import "time"

// Timer is a cancellable deferred callback.
type Timer interface {
	Stop() bool
}

// Scheduler arms deferred callbacks. Tests substitute a manual implementation.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// WallClockScheduler schedules with time.AfterFunc.
type WallClockScheduler struct{}

func (WallClockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
