package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mhyunpack/internal/codec"
	"mhyunpack/internal/container"
)

func (a *app) packCmd() *cobra.Command {
	var (
		generation string
		blockSize  int
		blbKey     string
		codecName  string
		base       string
	)
	cmd := &cobra.Command{
		Use:   "pack <output> <file>...",
		Short: "Pack files into a container readable by extract",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := container.ParseSignature([]byte(generation))
			if err != nil {
				return err
			}
			engine, err := a.engine()
			if err != nil {
				return err
			}
			variant, err := a.variant()
			if err != nil {
				return err
			}

			w := container.Writer{
				Cipher:      engine,
				Generation:  gen,
				NewEnvelope: variant.Traits().NewEnvelopeCipher && gen != container.GenBlb3,
				BlockSize:   blockSize,
				HeaderKey:   []byte(blbKey),
			}
			switch strings.ToLower(codecName) {
			case codec.NameLZ4:
				w.Codec = codec.LZ4{}
			case codec.NameLZMA:
				w.Codec = codec.LZMA{}
			default:
				return fmt.Errorf("%w: %q cannot compress", codec.ErrUnknownCodec, codecName)
			}

			files := make([]container.File, 0, len(args)-1)
			for _, path := range args[1:] {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				name, err := entryName(base, path)
				if err != nil {
					return err
				}
				files = append(files, container.File{Path: name, Data: data})
			}

			out, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", args[0], err)
			}
			if err := w.Write(out, files); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
			a.printer.Resultf("packed %d files into %s (%s)\n", len(files), args[0], gen)
			return nil
		},
	}
	cmd.Flags().StringVar(&generation, "envelope", "mhy1", "container envelope: mhy0, mhy1 or Blb3")
	cmd.Flags().IntVar(&blockSize, "block-size", 0, "uncompressed mhy block size")
	cmd.Flags().StringVar(&blbKey, "blb-key", "0123456789abcdef", "16-byte Blb3 header key")
	cmd.Flags().StringVar(&codecName, "codec", codec.NameLZ4, "block codec: lz4 or lzma")
	cmd.Flags().StringVar(&base, "base", "", "store entry paths relative to this directory")
	return cmd
}

// entryName is the container path stored for a packed file
func entryName(base, path string) (string, error) {
	switch {
	case base != "":
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return "", fmt.Errorf("%s is not under %s: %w", path, base, err)
		}
		path = rel
	case filepath.IsAbs(path):
		path = filepath.Base(path)
	}
	return filepath.ToSlash(path), nil
}
