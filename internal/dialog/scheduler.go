package dialog

import "time"

// Scheduler runs the delayed assistant reply.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// TimerScheduler uses time.AfterFunc. Scheduled replies are never cancelled.
type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

// ImmediateScheduler runs the reply synchronously, ignoring the delay.
type ImmediateScheduler struct{}

func (ImmediateScheduler) AfterFunc(_ time.Duration, f func()) {
	f()
}
