package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mhyunpack/internal/extract"
)

func (a *app) extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <container|directory>",
		Short: "Extract one container or every container under a directory",
		Example: "  mhyunpack extract --game GI --keyset gi.yaml data.blk\n" +
			"  mhyunpack extract -o extracted --game ZZZ --keyset zzz.yaml StreamingAssets/",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.containerConfig()
			if err != nil {
				return err
			}
			cat, err := a.openCatalog()
			if err != nil {
				return err
			}
			if cat != nil {
				defer cat.Close()
			}
			opts := extract.Options{Workers: a.cfg.Workers, Log: a.log, Catalog: cat}

			input := args[0]
			stat, err := os.Stat(input)
			if err != nil {
				return fmt.Errorf("error accessing path %s: %w", input, err)
			}

			var results []extract.Result
			if stat.IsDir() {
				a.log.Info().Str("input", input).Msg("batch mode")
				results, err = extract.Batch(cmd.Context(), cfg, input, a.cfg.Output, opts)
			} else {
				a.log.Info().Str("input", input).Msg("single file mode")
				outDir := filepath.Join(a.cfg.Output, strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)))
				results = []extract.Result{extract.File(cmd.Context(), cfg, input, outDir, opts)}
			}
			return errors.Join(err, a.report(results))
		},
	}
}

// report prints a summary and returns an error when any container failed
func (a *app) report(results []extract.Result) error {
	var failed []error
	files := 0
	for _, r := range results {
		files += r.Written
		if r.Err != nil {
			failed = append(failed, r.Err)
			continue
		}
		a.printer.Resultf("%s: %d/%d files -> %s\n", r.Container, r.Written, r.Entries, r.Output)
		for _, err := range r.Failed {
			a.printer.Verbosef("    %v\n", err)
		}
		if len(r.Failed) > 0 {
			a.printer.Resultf("    %d entries failed\n", len(r.Failed))
		}
	}
	a.printer.Resultf("Extracted %d files from %d containers\n", files, len(results)-len(failed))
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d containers failed: %w", len(failed), len(results), errors.Join(failed...))
	}
	return nil
}
