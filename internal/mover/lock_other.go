//go:build !unix && !windows

package mover

func isLockError(error) bool { return false }

func isCrossDevice(error) bool { return false }
