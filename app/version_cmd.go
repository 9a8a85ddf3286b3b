package app

import (
	"fmt"

	"github.com/alecthomas/kong"
)

type versionCmd struct{}

func (v *versionCmd) Run(vars kong.Vars) error {
	fmt.Printf("bootstrap %s\n", vars["version"])
	return nil
}
