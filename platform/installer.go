package platform

import (
	"context"

	"github.com/cashapp/bootstrap/errors"
	"github.com/cashapp/bootstrap/ui"
	"github.com/cashapp/bootstrap/util"
)

// ErrNotImplemented is returned for operations a platform does not support.
var ErrNotImplemented = errors.New("not implemented")

// Family is the native package manager family of a Platform.
type Family int

// Package manager families.
const (
	Unsupported Family = iota
	Debian
	RedHat
	MinGW
	MacPorts
)

func (f Family) String() string {
	switch f {
	case Debian:
		return "debian"
	case RedHat:
		return "redhat"
	case MinGW:
		return "mingw"
	case MacPorts:
		return "macports"
	default:
		return "unsupported"
	}
}

// InstallCommand returns the command line that installs "names" with the package manager of "family".
func InstallCommand(family Family, names ...string) ([]string, error) {
	var args []string
	switch family {
	case Debian:
		args = []string{"apt-get", "install", "-y"}
	case RedHat:
		args = []string{"yum", "install", "-y"}
	case MinGW:
		args = []string{"pacman", "-S", "--noconfirm"}
	case MacPorts:
		args = []string{"port", "-N", "install"}
	default:
		return nil, errors.Wrapf(ErrNotImplemented, "package installation for %s platforms", family)
	}
	return append(args, names...), nil
}

// Install packages with the native package manager of "family".
//
// A non-zero exit from the package manager is returned as a *util.ToolError.
func Install(ctx context.Context, task *ui.Task, runner util.CommandRunner, family Family, names ...string) error {
	args, err := InstallCommand(family, names...)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return nil
	}
	task.Infof("Installing %d package(s) with %s", len(names), args[0])
	return runner.RunInDir(ctx, task, "", args...)
}

// InstallPackages installs "names" with the native package manager of the platform.
func (p Platform) InstallPackages(ctx context.Context, task *ui.Task, runner util.CommandRunner, names ...string) error {
	err := Install(ctx, task, runner, p.Family, names...)
	if errors.Is(err, ErrNotImplemented) {
		return errors.Wrapf(err, "%s", p.Name)
	}
	return err
}
