package cmd

import (
	"github.com/spf13/cobra"
)

const banner = `
  ____    _    _   _ ____
 |  _ \  / \  | \ | |  _ \
 | | | |/ _ \ |  \| | |_) |
 | |_| / ___ \| |\  |  _ <
 |____/_/   \_\_| \_|_| \_\

Constrained-Node Network Protocol Stack
`

// CmdDanpd is the danpd root command.
var CmdDanpd = &cobra.Command{
	Use:   "danpd",
	Short: "DANP node daemon and control tools",
	Long:  banner[1:],
}

func init() {
	cobra.EnableCommandSorting = false
	CmdDanpd.Root().CompletionOptions.HiddenDefaultCmd = true
	CmdDanpd.PersistentFlags().BoolP("help", "h", false, "Print usage")
	CmdDanpd.PersistentFlags().Lookup("help").Hidden = true

	CmdDanpd.AddGroup(&cobra.Group{ID: "daemon", Title: "Node Daemon"})
	CmdDanpd.AddCommand(cmdServe())

	CmdDanpd.AddGroup(&cobra.Group{ID: "route", Title: "Route Management"})
	CmdDanpd.AddCommand(cmdRoute())

	CmdDanpd.AddGroup(&cobra.Group{ID: "debug", Title: "Debug Tools"})
	CmdDanpd.AddCommand(cmdStats())
}
