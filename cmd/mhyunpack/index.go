package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"mhyunpack/internal/extract"
)

func (a *app) indexCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "index <directory>",
		Short: "Record every container under a directory in the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Catalog == "" {
				return errors.New("no catalog configured (--catalog)")
			}
			m, done, err := a.manager()
			if err != nil {
				return err
			}
			defer done()

			paths, err := extract.FindContainers(args[0])
			if err != nil {
				return err
			}
			var errs []error
			indexed := 0
			for _, path := range paths {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				if fi, err := os.Stat(path); err == nil && !force && m.Fresh(path, fi) {
					a.log.Debug().Str("container", path).Msg("catalog entry is fresh")
					continue
				}
				if _, err := m.Mount(path); err != nil {
					a.log.Error().Err(err).Str("container", path).Msg("failed to index container")
					errs = append(errs, err)
					continue
				}
				indexed++
				if err := m.Unmount(path); err != nil {
					a.log.Warn().Err(err).Str("container", path).Msg("failed to release container")
				}
			}
			a.printer.Resultf("indexed %d of %d containers\n", indexed, len(paths))
			return errors.Join(errs...)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "re-index containers that did not change")
	return cmd
}
