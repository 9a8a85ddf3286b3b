package app

import (
	"os"

	"github.com/cashapp/bootstrap/internal/dao"
)

type dumpDBCmd struct{}

func (dumpDBCmd) Run(state stateDir) error {
	db, err := dao.Open(string(state))
	if err != nil {
		return err
	}
	return db.Dump(os.Stdout)
}
