package app

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/cashapp/bootstrap/errors"
	"github.com/cashapp/bootstrap/fetch"
	"github.com/cashapp/bootstrap/ui"
	"github.com/cashapp/bootstrap/util"
)

type fetchCmd struct {
	Dir     string `help:"Directory to download into." short:"C" default:"." type:"path" predictor:"dir"`
	KeepGit bool   `help:"Keep .git metadata in cloned repositories."`
	URL     string `arg:"" name:"url" help:"Archive URL or Git repository (<repo>.git[#<ref>])."`
}

func (f *fetchCmd) Run(ctx context.Context, l *ui.UI, client *http.Client, runner util.CommandRunner) error {
	sources := &fetch.Sources{Client: client, Runner: runner, Git: fetch.GitOptions{KeepMetadata: f.KeepGit}}
	source, err := sources.Get(f.URL)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(f.Dir, 0700); err != nil {
		return errors.WithStack(err)
	}
	path, err := source.Fetch(ctx, l.Task(util.BaseName(f.URL)), f.Dir)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}
