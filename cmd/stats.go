package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dogukanarat/danp/statlog"
)

func cmdStats() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:     "stats STATLOG-DIR",
		Short:   "Print recent socket-table snapshots from a node's stat journal",
		GroupID: "debug",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			j, err := statlog.Open(args[0])
			if err != nil {
				return err
			}
			defer j.Close()

			entries, err := j.Recent(limit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(os.Stdout, "port=%-5d type=%-6s state=%-12s peer=%d:%d txseq=%d rxseq=%d\n",
					e.Port, e.Type, e.State, e.RemoteNode, e.RemotePort, e.TxSeq, e.RxSeq)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of entries to print")
	return cmd
}
