package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingLocker struct {
	locks, unlocks int
}

func (l *countingLocker) Lock()   { l.locks++ }
func (l *countingLocker) Unlock() { l.unlocks++ }

func TestScopeLockReleaseOnce(t *testing.T) {
	l := &countingLocker{}

	func() {
		lock := AcquireScope(l)
		defer lock.Release()
		assert.True(t, lock.Held())

		lock.Release()
		assert.False(t, lock.Held())
	}()

	assert.Equal(t, 1, l.locks)
	assert.Equal(t, 1, l.unlocks)
}
