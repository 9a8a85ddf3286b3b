package debug

import (
	"fmt"
	"os"

	"github.com/alecthomas/hcl"
)

// Flags set from the HCL formatted BOOTSTRAP_DEBUG envar.
var Flags struct {
	ErrorTrace bool `hcl:"errortrace,optional" help:"Include source locations in error messages."`
	KeepWork   bool `hcl:"keepwork,optional" help:"Don't remove extracted or cloned source trees after a build."`
	FailHTTP   bool `hcl:"failhttp,optional" help:"Always fail HTTP requests."`
}

func init() {
	envar := os.Getenv("BOOTSTRAP_DEBUG")
	err := hcl.Unmarshal([]byte(envar), &Flags, hcl.BareBooleanAttributes(true))
	if err != nil {
		baseErr := err
		schema, err := hcl.Schema(&Flags)
		if err != nil {
			panic(err)
		}
		schemaBytes, err := hcl.MarshalAST(schema)
		if err != nil {
			panic(err)
		}
		fmt.Fprintf(os.Stderr, "Invalid BOOTSTRAP_DEBUG=%q: %s\n\nSchema:\n\n%s\n", envar, baseErr, string(schemaBytes))
		os.Exit(1)
	}
}
