//go:build !windows

package retention

import "syscall"

func isBusy(errno syscall.Errno) bool {
	return errno == syscall.EBUSY || errno == syscall.ETXTBSY
}
