//go:build !windows && !android

package platform

import (
	"runtime"

	"golang.org/x/sys/unix"
)

func uname() (sysname, machine string) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return "", runtime.GOARCH
	}
	return unix.ByteSliceToString(u.Sysname[:]), unix.ByteSliceToString(u.Machine[:])
}

func systemName() string {
	sysname, _ := uname()
	return sysname
}

func machineName() string {
	_, machine := uname()
	return machine
}
