package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mhyunpack/internal/animcodec"
)

func (a *app) tracksCmd() *cobra.Command {
	var scalar, database, bulk string
	cmd := &cobra.Command{
		Use:   "tracks <transform-tracks>",
		Short: "Decompress animation tracks with the native codec",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.ACLLibrary == "" {
				return errors.New("no animation codec library configured (--acl-library)")
			}
			var t animcodec.Tracks
			for _, in := range []struct {
				path string
				dst  *[]byte
			}{
				{args[0], &t.Transform},
				{scalar, &t.Scalar},
				{database, &t.Database},
				{bulk, &t.BulkData},
			} {
				if in.path == "" {
					continue
				}
				data, err := os.ReadFile(in.path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", in.path, err)
				}
				*in.dst = data
			}

			native, err := animcodec.LoadNative(a.cfg.ACLLibrary)
			if err != nil {
				return err
			}
			defer native.Close()

			clip, err := animcodec.Decompress(native, t)
			if err != nil {
				return err
			}
			a.printer.Resultf("%d frames, %d values per frame\n", len(clip.Times), clip.Stride())
			if len(clip.Times) > 0 {
				a.printer.Verbosef("duration %.3fs\n", clip.Times[len(clip.Times)-1])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&scalar, "scalar", "", "scalar tracks file")
	cmd.Flags().StringVar(&database, "database", "", "compressed database file")
	cmd.Flags().StringVar(&bulk, "bulk", "", "database bulk data file")
	return cmd
}
