package app

import (
	"github.com/cashapp/bootstrap/internal/dao"
	"github.com/cashapp/bootstrap/ui"
)

type forgetCmd struct {
	Names []string `arg:"" name:"name" help:"Names of builds to forget."`
}

func (f *forgetCmd) Help() string {
	return `Remove build receipts. Installed files are left in place.`
}

func (f *forgetCmd) Run(l *ui.UI, state stateDir) error {
	db, err := dao.Open(string(state))
	if err != nil {
		return err
	}
	for _, name := range f.Names {
		if err := db.Delete(name); err != nil {
			return err
		}
		l.Infof("Forgot %s", name)
	}
	return nil
}
