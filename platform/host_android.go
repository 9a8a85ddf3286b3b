//go:build android

package platform

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// The Android kernel reports itself as Linux.
func systemName() string { return "Android" }

func machineName() string {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return runtime.GOARCH
	}
	return unix.ByteSliceToString(u.Machine[:])
}
