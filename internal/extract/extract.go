// Package extract writes the files of decoded containers to disk
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"mhyunpack/internal/catalog"
	"mhyunpack/internal/container"
)

// ErrUnsafePath is returned for entry paths that would escape the output directory
var ErrUnsafePath = errors.New("entry path escapes output directory")

// Options control where and how files are written
type Options struct {
	// Workers bounds concurrent file writes per container and concurrent containers per batch
	Workers int
	Log     zerolog.Logger
	// Catalog records every decoded container when set
	Catalog *catalog.Catalog
}

func (o Options) workers(n int) int {
	w := o.Workers
	if w <= 0 {
		w = min(runtime.NumCPU()*2, 10)
	}
	return max(min(w, n), 1)
}

// Result is the outcome of one container
type Result struct {
	Container string
	Output    string
	Entries   int
	Written   int
	// Failed lists per-entry decode and write failures
	Failed []error
	// Err is the fatal decode error, if any
	Err error
}

// fileJob represents a job for writing a single extracted file
type fileJob struct {
	File  *container.StreamFile
	Index int
	Total int
}

type fileResult struct {
	Index int
	Path  string
	Err   error
}

// File decodes one container and writes its files under outDir
func File(ctx context.Context, cfg container.Config, path, outDir string, opts Options) Result {
	res := Result{Container: path, Output: outDir}
	log := opts.Log.With().Str("container", path).Logger()
	cfg.Logger = opts.Log

	b, err := container.Open(path, cfg)
	if err != nil {
		res.Err = err
		return res
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to release extracted files")
		}
	}()

	if opts.Catalog != nil {
		fi, _ := os.Stat(path)
		if err := opts.Catalog.Record(b, fi); err != nil {
			log.Warn().Err(err).Msg("failed to record container in catalog")
		}
	}

	res.Entries = len(b.Entries)
	for _, f := range b.Failures {
		res.Failed = append(res.Failed, f)
	}
	written, failed := writeAll(ctx, b.Files, outDir, opts.workers(len(b.Files)), log)
	res.Written = written
	res.Failed = append(res.Failed, failed...)
	if err := ctx.Err(); err != nil {
		res.Err = err
	}
	return res
}

// writeAll writes every file using a bounded pool of workers
func writeAll(ctx context.Context, files []*container.StreamFile, outDir string, workers int, log zerolog.Logger) (int, []error) {
	if len(files) == 0 {
		return 0, nil
	}
	log.Debug().Int("workers", workers).Int("files", len(files)).Msg("writing files")

	jobs := make(chan fileJob, len(files))
	results := make(chan fileResult, len(files))

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range jobs {
				if ctx.Err() != nil {
					results <- fileResult{Index: job.Index, Path: job.File.Path, Err: ctx.Err()}
					continue
				}
				log.Trace().Int("worker", workerID).Msgf("writing %d/%d: %s", job.Index+1, job.Total, job.File.Path)
				results <- fileResult{Index: job.Index, Path: job.File.Path, Err: writeFile(job.File, outDir)}
			}
		}(w)
	}

	for i, f := range files {
		jobs <- fileJob{File: f, Index: i, Total: len(files)}
	}
	close(jobs)
	wg.Wait()
	close(results)

	var errs []error
	written := 0
	for r := range results {
		if r.Err != nil {
			errs = append(errs, &container.EntryError{Path: r.Path, Err: r.Err})
			continue
		}
		written++
	}
	if len(errs) > 0 {
		log.Warn().Int("written", written).Int("failed", len(errs)).Msg("extraction completed with errors")
	}
	return written, errs
}

// OutputPath maps an entry path into outDir, rejecting paths that leave it
func OutputPath(outDir, entryPath string) (string, error) {
	rel := filepath.FromSlash(strings.ReplaceAll(entryPath, "\\", "/"))
	rel = strings.TrimLeft(rel, string(filepath.Separator))
	if vol := filepath.VolumeName(rel); vol != "" {
		rel = rel[len(vol):]
	}
	if rel == "" || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, entryPath)
	}
	return filepath.Join(outDir, rel), nil
}

// writeFile copies one extracted file to disk
func writeFile(f *container.StreamFile, outDir string) error {
	outputPath, err := OutputPath(outDir, f.Path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(outputPath), err)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", outputPath, err)
	}
	// a section per job so workers never share a read offset
	if _, err := io.Copy(out, io.NewSectionReader(f, 0, f.Size())); err != nil {
		out.Close()
		return fmt.Errorf("failed to write file %s: %w", outputPath, err)
	}
	return out.Close()
}
