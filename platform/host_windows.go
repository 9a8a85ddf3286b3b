//go:build windows

package platform

import (
	"os"
	"os/exec"
	"strings"
)

// Under MSYS2 (MSYSTEM is set) uname reports the MinGW flavour, eg. MINGW64_NT-10.0-19045.
func systemName() string {
	if os.Getenv("MSYSTEM") != "" {
		if out, err := exec.Command("uname", "-s").Output(); err == nil {
			return strings.TrimSpace(string(out))
		}
	}
	return "Windows"
}

func machineName() string {
	if arch := os.Getenv("PROCESSOR_ARCHITEW6432"); arch != "" {
		return arch
	}
	return os.Getenv("PROCESSOR_ARCHITECTURE")
}
