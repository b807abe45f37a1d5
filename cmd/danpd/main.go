// Command danpd runs the DANP node daemon and its offline control tools.
package main

import (
	"os"

	"github.com/dogukanarat/danp/cmd"
)

func main() {
	if err := cmd.CmdDanpd.Execute(); err != nil {
		os.Exit(1)
	}
}
