package platform

import "github.com/wippyai/baremetal-platform/errors"

// ErrNotSupported is returned by every thread lifecycle operation.
var ErrNotSupported = errors.Unsupported(errors.PhasePlatform, "threads")

// ThreadStart is the entry point handed to CreateThread.
type ThreadStart func(arg uint32) uint32

// CreateThread always fails: there is exactly one executor.
func CreateThread(ThreadStart, uint32, uint32) (ThreadID, error) {
	return 0, ErrNotSupported
}

// JoinThread always fails.
func JoinThread(ThreadID) (uint32, error) {
	return 0, ErrNotSupported
}

// SelfThread returns the identifier of the only thread.
func SelfThread() ThreadID { return 0 }
