package app

import (
	"context"
	"fmt"

	"github.com/kballard/go-shellquote"

	"github.com/cashapp/bootstrap/platform"
	"github.com/cashapp/bootstrap/ui"
	"github.com/cashapp/bootstrap/util"
)

// hostResolver resolves the platform bootstrap is running on.
type hostResolver func(ctx context.Context) (platform.Platform, error)

type installCmd struct {
	Print    bool     `help:"Print the package manager command instead of running it."`
	Packages []string `arg:"" name:"package" help:"Native packages to install."`
}

func (i *installCmd) Help() string {
	return `
Install packages with the package manager native to the host: apt-get on Debian derivatives,
yum on Red Hat derivatives, pacman under MSYS2 and MacPorts on macOS.
`
}

func (i *installCmd) Run(ctx context.Context, l *ui.UI, host hostResolver, runner util.CommandRunner) error {
	p, err := host(ctx)
	if err != nil {
		return err
	}
	if i.Print {
		args, err := platform.InstallCommand(p.Family, i.Packages...)
		if err != nil {
			return err
		}
		fmt.Println(shellquote.Join(args...))
		return nil
	}
	return p.InstallPackages(ctx, l.Task("install"), runner, i.Packages...)
}
