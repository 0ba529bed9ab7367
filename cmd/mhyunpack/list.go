package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mhyunpack/internal/filesystem"
)

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <container>",
		Short: "List the entries of a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, done, err := a.manager()
			if err != nil {
				return err
			}
			defer done()

			entries, err := m.Decode(args[0])
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SIZE\tFLAGS\tPATH")
			for _, e := range entries {
				fmt.Fprintf(tw, "%d\t%#x\t%s\n", e.Size, e.Flags, e.Path)
			}
			return tw.Flush()
		},
	}
}

// manager builds a filesystem manager for the configured game and engine version.
// done closes the manager and its catalog.
func (a *app) manager() (m *filesystem.Manager, done func(), err error) {
	cfg, err := a.containerConfig()
	if err != nil {
		return nil, nil, err
	}
	version, err := a.cfg.Version()
	if err != nil {
		return nil, nil, err
	}
	cat, err := a.openCatalog()
	if err != nil {
		return nil, nil, err
	}

	m = filesystem.NewManager("", cfg, version)
	if cat != nil {
		m.SetCatalog(cat)
	}
	return m, func() {
		if err := m.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close containers")
		}
		if cat != nil {
			_ = cat.Close()
		}
	}, nil
}
