package mover

import (
	"os"

	"github.com/gofrs/flock"
)

// isHeldOpen reports whether another process holds path exclusively, either
// through an advisory lock or, on Windows, by opening it without sharing.
func isHeldOpen(path string) bool {
	fl := flock.New(path, flock.SetFlag(os.O_RDONLY))
	ok, err := fl.TryRLock()
	if err != nil {
		return isLockError(err)
	}
	if !ok {
		return true
	}
	_ = fl.Unlock()
	return false
}
