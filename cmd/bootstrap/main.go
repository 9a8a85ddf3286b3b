package main

import (
	"fmt"
	"os"

	"github.com/cashapp/bootstrap/app"
)

var (
	channel = "canary"
	version = "devel"
)

func main() {
	app.Main(app.Config{
		Version: fmt.Sprintf("%s (%s)", version, channel),
		CI:      os.Getenv("CI") != "",
	})
}
