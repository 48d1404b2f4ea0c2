package catalog

import "sync/atomic"

// ScopeLock holds a catalog's exclusive lock for the duration of a scope.
//
//	lock := catalog.AcquireScope(c)
//	defer lock.Release()
//
// It is not reentrant: acquiring a second scope on the same catalog from the
// same goroutine blocks forever.
type ScopeLock struct {
	locker Locker
	held   atomic.Bool
}

// AcquireScope blocks until the lock of l is held.
func AcquireScope(l Locker) *ScopeLock {
	l.Lock()
	s := &ScopeLock{locker: l}
	s.held.Store(true)
	return s
}

// Release unlocks the catalog. Only the first call has an effect, so it is safe
// to release early and still defer Release.
func (s *ScopeLock) Release() {
	if s.held.CompareAndSwap(true, false) {
		s.locker.Unlock()
	}
}

// Held reports whether the scope still owns the lock.
func (s *ScopeLock) Held() bool {
	return s.held.Load()
}
