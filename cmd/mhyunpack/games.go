package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mhyunpack/internal/game"
)

func (a *app) gamesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "games",
		Short: "List the supported game variant tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TAG\tGAME\tNEW ENVELOPE")
			for _, v := range game.Variants() {
				fmt.Fprintf(tw, "%s\t%s\t%v\n", v, v.DisplayName(), v.Traits().NewEnvelopeCipher)
			}
			return tw.Flush()
		},
	}
}
