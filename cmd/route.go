package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dogukanarat/danp/route/persist"
)

func cmdRoute() *cobra.Command {
	root := &cobra.Command{
		Use:     "route",
		Short:   "Inspect or replace a node's persisted route set",
		GroupID: "route",
	}
	root.AddCommand(cmdRouteShow(), cmdRouteSet())
	return root
}

func cmdRouteShow() *cobra.Command {
	return &cobra.Command{
		Use:   "show ROUTE-DB",
		Short: "Print the persisted route rule set",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			store, err := persist.Open(args[0])
			if err != nil {
				return err
			}
			defer store.Close()

			rules, err := store.Load()
			if err != nil {
				return err
			}
			if rules == "" {
				fmt.Fprintln(os.Stdout, "(no routes persisted)")
				return nil
			}
			fmt.Fprintln(os.Stdout, rules)
			return nil
		},
	}
}

func cmdRouteSet() *cobra.Command {
	return &cobra.Command{
		Use:   "set ROUTE-DB RULES",
		Short: `Replace the persisted route rule set (e.g. "1:if0,42:backbone")`,
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			store, err := persist.Open(args[0])
			if err != nil {
				return err
			}
			defer store.Close()
			return store.Save(args[1])
		},
	}
}
