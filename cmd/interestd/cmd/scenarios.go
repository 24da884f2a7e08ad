package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/warp/interest-engine/api"
)

func newScenariosCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "Demo index series",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List demo scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSERIES\tDESCRIPTION")
			for _, s := range api.Scenarios() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, strings.Join(s.Indices, ","), s.Description)
			}
			return tw.Flush()
		},
	})

	var reset bool
	load := &cobra.Command{
		Use:   "load <scenario>",
		Short: "Load a demo scenario into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			h, closeStore, err := a.newHandler(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			inserted, err := h.LoadDemoScenario(ctx, args[0], reset)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded scenario %s: %d records inserted\n", args[0], inserted)
			return nil
		},
	}
	load.Flags().BoolVar(&reset, "reset", false, "empty the store first")
	cmd.AddCommand(load)

	return cmd
}
