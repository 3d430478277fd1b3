package services

import "time"

// Scheduler runs deferred jobs outside the transaction that scheduled
// them. Jobs are fire-and-forget, at-least-once, and must be idempotent:
// auto-reveal fires with zero delay right after the casting transaction
// commits, demo auto-close fires minutes later and may find the room
// already closed or gone.
type Scheduler interface {
	After(delay time.Duration, job func())
}

// AsyncScheduler is the production scheduler backed by timers.
type AsyncScheduler struct{}

func NewAsyncScheduler() *AsyncScheduler {
	return &AsyncScheduler{}
}

func (s *AsyncScheduler) After(delay time.Duration, job func()) {
	time.AfterFunc(delay, job)
}

// SyncScheduler runs jobs inline and is meant for tests, where deferred
// effects should be observable immediately. Services invoke the scheduler
// only after their own transaction has committed, so inline execution is
// safe.
type SyncScheduler struct{}

func (s *SyncScheduler) After(_ time.Duration, job func()) {
	job()
}
