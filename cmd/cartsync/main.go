// Command cartsync manages an offline-first cart and wishlist.
package main

import (
	"os"

	"github.com/roach88/cartsync/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		format, _ := cmd.PersistentFlags().GetString("format")
		cli.ReportError(os.Stderr, format, err)
		os.Exit(cli.GetExitCode(err))
	}
}
