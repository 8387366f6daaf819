//go:build unix

package mover

import (
	"errors"

	"golang.org/x/sys/unix"
)

func isLockError(err error) bool {
	return errors.Is(err, unix.EBUSY) ||
		errors.Is(err, unix.ETXTBSY) ||
		errors.Is(err, unix.EAGAIN) ||
		errors.Is(err, unix.EWOULDBLOCK)
}

func isCrossDevice(err error) bool {
	return errors.Is(err, unix.EXDEV)
}
