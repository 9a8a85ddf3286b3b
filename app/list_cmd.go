package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/colour"

	"github.com/cashapp/bootstrap/errors"
	"github.com/cashapp/bootstrap/internal/dao"
)

// JSONFormattable contains the shared JSON boolean flag for Kong
type JSONFormattable struct {
	JSON bool `help:"Format information as a JSON array" default:"false"`
}

type listCmd struct {
	Short bool `short:"s" help:"Short listing."`
	JSONFormattable
}

func (cmd *listCmd) Run(state stateDir) error {
	db, err := dao.Open(string(state))
	if err != nil {
		return err
	}
	receipts, err := db.List()
	if err != nil {
		return errors.WithStack(err)
	}
	return listReceipts(os.Stdout, receipts, cmd.Short, cmd.JSON)
}

func listReceipts(w io.Writer, receipts []*dao.Receipt, short, isJSON bool) error {
	switch {
	case isJSON:
		if receipts == nil {
			receipts = []*dao.Receipt{}
		}
		content, err := json.Marshal(receipts)
		if err != nil {
			return errors.Wrapf(err, "error formatting receipts output to json")
		}
		_, err = fmt.Fprintf(w, "%s\n", content)
		return errors.WithStack(err)

	case short:
		for _, receipt := range receipts {
			fmt.Fprintln(w, receipt.Name)
		}

	default:
		for _, receipt := range receipts {
			colour.Fprintf(w, "^B^2%s^R (%s) -> %s\n", receipt.Name, receipt.Platform, receipt.Prefix)
			fmt.Fprintf(w, "  %s\n", receipt.Source)
			if len(receipt.Flags) > 0 {
				fmt.Fprintf(w, "  flags: %s\n", strings.Join(receipt.Flags, " "))
			}
			fmt.Fprintf(w, "  built %s in %s\n", receipt.BuiltAt.Local().Format(time.RFC1123), receipt.Duration)
		}
	}
	return nil
}
