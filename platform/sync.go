package platform

import (
	"sync"
	"time"
)

// Mutex is a lock for a target with a single executor and no preemption.
// Every operation succeeds immediately.
type Mutex struct{}

var (
	_ sync.Locker = (*Mutex)(nil)
	_ sync.Locker = (*RWLock)(nil)
)

func (*Mutex) Init() error { return nil }
func (*Mutex) Destroy() error { return nil }
func (*Mutex) Lock() {}
func (*Mutex) Unlock() {}

// TryLock always succeeds.
func (*Mutex) TryLock() bool { return true }

// Cond is a condition variable that never blocks. Wait returns at once;
// callers re-check their predicate as they would after a spurious wakeup.
type Cond struct{}

func (*Cond) Init() error { return nil }
func (*Cond) Destroy() error { return nil }
func (*Cond) Wait(*Mutex) error { return nil }
func (*Cond) TimedWait(*Mutex, time.Duration) error { return nil }
func (*Cond) Signal() error { return nil }
func (*Cond) Broadcast() error { return nil }

// RWLock is a reader/writer lock with no-op operations.
type RWLock struct{}

func (*RWLock) Init() error { return nil }
func (*RWLock) Destroy() error { return nil }
func (*RWLock) RLock() {}
func (*RWLock) RUnlock() {}
func (*RWLock) Lock() {}
func (*RWLock) Unlock() {}

// Sem is a counting semaphore with no-op operations.
type Sem struct{}

func (*Sem) Wait() error { return nil }
func (*Sem) TryWait() error { return nil }
func (*Sem) Post() error { return nil }
func (*Sem) Close() error { return nil }
