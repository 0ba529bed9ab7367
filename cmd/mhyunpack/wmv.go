package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func (a *app) wmvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wmv <input> <output>",
		Short: "Decrypt a scrambled WMV video",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := a.engine()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			if err := engine.DecryptWMV(data); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if err := os.WriteFile(args[1], data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", args[1], err)
			}
			a.printer.Resultf("decrypted %s -> %s (%d bytes)\n", args[0], args[1], len(data))
			return nil
		},
	}
}
