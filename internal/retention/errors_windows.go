//go:build windows

package retention

import "syscall"

// ERROR_SHARING_VIOLATION and ERROR_LOCK_VIOLATION
const (
	errSharingViolation syscall.Errno = 32
	errLockViolation    syscall.Errno = 33
)

func isBusy(errno syscall.Errno) bool {
	return errno == errSharingViolation || errno == errLockViolation
}
