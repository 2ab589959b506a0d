package compiler

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"tpp/internal/htmlnorm"
	"tpp/internal/options"
	"tpp/internal/pipeline"
)

// BatchOptions configures a directory compile.
type BatchOptions struct {
	// Jobs caps worker parallelism; 0 means GOMAXPROCS.
	Jobs int
	// Overrides are applied on top of every resolved option set
	// (command-line flags).
	Overrides []string
	// Sink receives per-file progress events; nil disables reporting.
	Sink pipeline.ProgressSink
	// NoHTMLFallback retries a template without structural processing when
	// it fails with a structural error, the way hand-written legacy markup
	// often requires.
	NoHTMLFallback bool
}

// BatchResult is the outcome for one template in a batch.
type BatchResult struct {
	Path     string
	Result   *Result
	Err      error
	Fallback bool // compiled on the no-html retry
	Elapsed  time.Duration
}

// ListTemplates resolves the template root (tpp.toml's template_root, or
// startDir without a manifest) and returns the sorted relative paths of
// every *.html template under it.
func ListTemplates(startDir string) (root string, files []string, err error) {
	manifest, found, err := options.LoadManifest(startDir)
	if err != nil {
		return "", nil, err
	}
	root = startDir
	if found {
		root = manifest.TemplateRoot()
	}
	files, err = listTemplates(root)
	return root, files, err
}

// listTemplates returns the sorted relative paths of all *.html files
// under root.
func listTemplates(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".html") {
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return relErr
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// CompileDir compiles every template under the manifest's template root
// in parallel. Option sets come from the manifest's default and per-app
// scopes; results are ordered by path. Individual template failures do
// not abort the batch.
func (c *Compiler) CompileDir(ctx context.Context, startDir string, opts BatchOptions) ([]BatchResult, error) {
	manifest, found, err := options.LoadManifest(startDir)
	if err != nil {
		return nil, err
	}
	root := startDir
	if found {
		root = manifest.TemplateRoot()
	}

	files, err := listTemplates(root)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	// Preload serially: the FileSet is not synchronized, and workers only
	// read from it once every template is in.
	loadErrors := make(map[string]error, len(files))
	for _, rel := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if _, err := c.Files.Load(full); err != nil {
			loadErrors[rel] = err
		}
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]BatchResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, rel := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			emit(opts.Sink, pipeline.Event{File: rel, Status: pipeline.StatusWorking})
			start := time.Now()
			if loadErr, bad := loadErrors[rel]; bad {
				results[i] = BatchResult{Path: rel, Err: loadErr}
			} else {
				results[i] = c.compileOne(root, rel, manifest, opts)
			}
			results[i].Elapsed = time.Since(start)

			evt := pipeline.Event{File: rel, Elapsed: results[i].Elapsed}
			switch {
			case results[i].Err != nil:
				evt.Status = pipeline.StatusError
				evt.Err = results[i].Err
			case results[i].Result.Cached:
				evt.Status = pipeline.StatusCached
			default:
				evt.Status = pipeline.StatusDone
			}
			emit(opts.Sink, evt)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (c *Compiler) compileOne(root, rel string, manifest *options.Manifest, opts BatchOptions) BatchResult {
	out := BatchResult{Path: rel}

	set := options.Default()
	if manifest != nil {
		resolved, err := manifest.Resolve(rel)
		if err != nil {
			out.Err = err
			return out
		}
		set = resolved
	}
	if err := set.ApplyAll(opts.Overrides); err != nil {
		out.Err = err
		return out
	}

	full := filepath.Join(root, filepath.FromSlash(rel))
	out.Result, out.Err = c.Compile(full, set)

	if out.Err != nil && opts.NoHTMLFallback && errors.Is(out.Err, htmlnorm.ErrStruct) {
		retry := set.Clone()
		retry.Disable(options.FlagHTML)
		if res, err := c.Compile(full, retry); err == nil {
			out.Result, out.Err = res, nil
			out.Fallback = true
		}
	}
	return out
}

func emit(sink pipeline.ProgressSink, evt pipeline.Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}
