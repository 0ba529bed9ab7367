package extract

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"mhyunpack/internal/container"
)

// IsContainer reports whether the file at path starts with a known container signature
func IsContainer(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	sig := make([]byte, 4)
	if _, err := io.ReadFull(f, sig); err != nil {
		return false
	}
	_, err = container.ParseSignature(sig)
	return err == nil
}

// FindContainers walks dir for container files in lexical order
func FindContainers(dir string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && IsContainer(path) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}
	return found, nil
}

// outputDir gives each container of a batch its own subdirectory
func outputDir(inputDir, path, outDir string) string {
	rel, err := filepath.Rel(inputDir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	return filepath.Join(outDir, strings.TrimSuffix(rel, filepath.Ext(rel)))
}

// Batch extracts every container under inputDir. Containers decode concurrently with
// their own decoder and codec adapter; a failed container does not stop the others.
// The returned error is only set for scan failures and cancellation.
func Batch(ctx context.Context, cfg container.Config, inputDir, outDir string, opts Options) ([]Result, error) {
	paths, err := FindContainers(inputDir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no containers found in directory: %s", inputDir)
	}
	opts.Log.Info().Int("containers", len(paths)).Str("input", inputDir).Msg("found containers to process")

	results := make([]Result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers(len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{Container: path, Err: err}
				return err
			}
			opts.Log.Info().Msgf("processing %d/%d: %s", i+1, len(paths), filepath.Base(path))
			results[i] = File(gctx, cfg, path, outputDir(inputDir, path, outDir), opts)
			if r := results[i]; r.Err != nil {
				opts.Log.Error().Err(r.Err).Str("container", path).Msg("failed to process container")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
