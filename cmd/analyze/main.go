// analyze dumps the header, block table and entry bytes of a container one decode step at a time
package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mhyunpack/internal/container"
	"mhyunpack/internal/output"
	"mhyunpack/internal/settings"
)

type options struct {
	keyset string
	game   string
	bytes  int
	entry  string
	debug  bool
}

func main() {
	if err := newCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:           "analyze <container>",
		Short:         "Inspect a container step by step",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return analyze(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], o)
		},
	}
	cmd.Flags().StringVar(&o.keyset, "keyset", "", "keyset file with the cipher tables")
	cmd.Flags().StringVar(&o.game, "game", "", "game variant tag")
	cmd.Flags().IntVar(&o.bytes, "bytes", 128, "bytes to dump")
	cmd.Flags().StringVar(&o.entry, "entry", "", "dump the start of this entry")
	cmd.Flags().BoolVar(&o.debug, "debug", false, "log every decode step")
	return cmd
}

func analyze(w, logw io.Writer, path string, o options) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	head := make([]byte, o.bytes)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("error reading file: %w", err)
	}
	fmt.Fprintf(w, "First %d bytes of %s:\n", n, path)
	hexdump(w, head[:n], 0)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	level := output.LogNormal
	if o.debug {
		level = output.LogDebug
	}
	cfg := settings.DefaultConfig()
	if o.game != "" {
		cfg.Game = o.game
	}
	engine, err := settings.LoadEngine(o.keyset)
	if err != nil {
		return err
	}
	ccfg, err := cfg.ContainerConfig(engine, output.New(level, logw))
	if err != nil {
		return err
	}

	d, err := container.NewDecoder(f, path, ccfg)
	if err != nil {
		return err
	}
	defer d.Close()

	header, err := d.ReadHeader()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nEnvelope %s, block info %d bytes\n", header.Generation, header.CompressedBlockInfoSize)

	entries, blocks, err := d.DecodeBlockInfo()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "\n%d blocks:\n", len(blocks))
	fmt.Fprintln(tw, "#\tcompressed\tuncompressed\tcodec\t")
	for i, b := range blocks {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t\n", i, b.CompressedSize, b.UncompressedSize, b.Compression())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d entries:\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(w, "  %s\n", e)
	}

	if o.entry == "" {
		return nil
	}
	if err := d.AssembleBlocks(); err != nil {
		return err
	}
	files, err := d.ExtractFiles()
	if err != nil {
		return err
	}
	for _, sf := range files {
		if sf.Path != o.entry {
			continue
		}
		buf := make([]byte, min(int64(o.bytes), sf.Size()))
		if _, err := sf.ReadAt(buf, 0); err != nil && err != io.EOF {
			return err
		}
		fmt.Fprintf(w, "\nFirst %d bytes of %s:\n", len(buf), sf.Path)
		hexdump(w, buf, 0)
		return nil
	}
	return fmt.Errorf("entry %q not found", o.entry)
}
