package app

import (
	"fmt"
	"os"

	"github.com/cashapp/bootstrap/archive"
	"github.com/cashapp/bootstrap/errors"
	"github.com/cashapp/bootstrap/ui"
	"github.com/cashapp/bootstrap/util"
)

type extractCmd struct {
	Dir     string `help:"Directory to extract into." short:"C" default:"." type:"path" predictor:"dir"`
	Archive string `arg:"" help:"Archive to extract." type:"existingfile" predictor:"file"`
}

func (e *extractCmd) Run(l *ui.UI) error {
	if err := os.MkdirAll(e.Dir, 0700); err != nil {
		return errors.WithStack(err)
	}
	root, err := archive.Extract(l.Task(util.BaseName(e.Archive)), e.Archive, e.Dir)
	if err != nil {
		return err
	}
	fmt.Println(root)
	return nil
}
