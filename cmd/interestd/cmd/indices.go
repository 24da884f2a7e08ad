package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newIndicesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "indices",
		Short: "List stored index series",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, closeStore, err := openStore(ctx, a.cfg.Store)
			if err != nil {
				return err
			}
			defer closeStore()

			infos, err := s.ListIndices(ctx)
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No index series stored.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tRECORDS\tFIRST\tLAST\tDESCRIPTION")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
					info.Name, info.Records, info.First, info.Last, info.Description)
			}
			return tw.Flush()
		},
	}
}
