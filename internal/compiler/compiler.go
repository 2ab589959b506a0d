package compiler

import (
	"fmt"
	"sync"
	"sync/atomic"

	"tpp/internal/codegen"
	"tpp/internal/diag"
	"tpp/internal/directive"
	"tpp/internal/htmlnorm"
	"tpp/internal/lexer"
	"tpp/internal/observ"
	"tpp/internal/optimize"
	"tpp/internal/options"
	"tpp/internal/parser"
	"tpp/internal/source"
)

// DefaultMaxDiagnostics caps the per-unit diagnostic bag.
const DefaultMaxDiagnostics = 64

// Compiler runs the full pipeline and memoizes artifacts per
// (source content, option-set) key. The registry and default options are
// read-only once the first compile starts; the unit table is the only
// shared mutable state and serializes writers per key.
type Compiler struct {
	Files    *source.FileSet
	Registry *directive.Registry
	// Disk, when set, persists artifacts across processes.
	Disk *DiskCache
	// MaxDiagnostics caps each unit's bag; 0 means DefaultMaxDiagnostics.
	MaxDiagnostics int
	// Timings records per-phase durations on each Result.
	Timings bool
	// Force recompiles even when a disk-cached artifact exists; the fresh
	// artifact still replaces the cache entry.
	Force bool

	mu     sync.Mutex
	units  map[unitKey]*unit
	freeze sync.Once

	lexCount atomic.Uint64
}

type unitKey struct {
	content     [32]byte
	fingerprint string
}

// unit is one in-flight or finished compilation. done closes when the
// result fields are final; late arrivals for the same key wait on it
// instead of compiling again.
type unit struct {
	done chan struct{}
	res  *Result
	err  error
}

// Result is one unit's outcome. The artifact is immutable; Cached reports
// whether it was served from memory rather than produced by this call.
type Result struct {
	Path     string
	Artifact *codegen.Artifact
	Bag      *diag.Bag
	Cached   bool
	Timing   *observ.Report
}

func New(files *source.FileSet) *Compiler {
	return &Compiler{
		Files: files,
		units: make(map[unitKey]*unit),
	}
}

func (c *Compiler) registry() *directive.Registry {
	if c.Registry != nil {
		return c.Registry
	}
	return directive.Default()
}

// LexCount returns how many times the lexer has actually run. Cache hits
// do not move it.
func (c *Compiler) LexCount() uint64 {
	return c.lexCount.Load()
}

// Compile runs the pipeline for a loaded file under the given option set,
// or returns the memoized artifact for the same content and options.
// A failed unit is not cached; the next call retries.
func (c *Compiler) Compile(path string, set options.Set) (*Result, error) {
	file, ok := c.Files.GetByPath(path)
	if !ok {
		id, err := c.Files.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		file = c.Files.Get(id)
	}
	return c.compileFile(file, set)
}

// CompileSource compiles an in-memory template, registering it as a
// virtual file.
func (c *Compiler) CompileSource(name string, content []byte, set options.Set) (*Result, error) {
	if file, ok := c.Files.GetByPath(name); ok {
		return c.compileFile(file, set)
	}
	id := c.Files.AddVirtual(name, content)
	return c.compileFile(c.Files.Get(id), set)
}

func (c *Compiler) compileFile(file *source.File, set options.Set) (*Result, error) {
	// The registry is read-only from the first compile on; external
	// directives must register before this point.
	c.freeze.Do(func() { c.registry().Freeze() })

	key := unitKey{content: file.Hash, fingerprint: set.Fingerprint()}

	c.mu.Lock()
	if u, ok := c.units[key]; ok {
		c.mu.Unlock()
		<-u.done
		if u.err != nil {
			return nil, u.err
		}
		hit := *u.res
		hit.Cached = true
		return &hit, nil
	}
	u := &unit{done: make(chan struct{})}
	if c.units == nil {
		c.units = make(map[unitKey]*unit)
	}
	c.units[key] = u
	c.mu.Unlock()

	u.res, u.err = c.run(file, set, key)
	close(u.done)

	if u.err != nil {
		c.mu.Lock()
		delete(c.units, key)
		c.mu.Unlock()
		return nil, u.err
	}
	return u.res, nil
}

// run is the synchronous single-threaded pipeline: lex, parse, normalize,
// optimize, generate. No suspension points, no shared mutable state.
func (c *Compiler) run(file *source.File, set options.Set, key unitKey) (*Result, error) {
	if c.Disk != nil && !c.Force {
		var payload DiskPayload
		if ok, err := c.Disk.Get(key, &payload); err == nil && ok {
			return &Result{
				Path:     file.Path,
				Artifact: &payload.Artifact,
				Bag:      diag.NewBag(c.maxDiagnostics()),
			}, nil
		}
	}

	bag := diag.NewBag(c.maxDiagnostics())
	reporter := diag.BagReporter{Bag: bag}

	var timer *observ.Timer
	if c.Timings {
		timer = observ.NewTimer()
	}
	phase := func(name string) int {
		if timer == nil {
			return -1
		}
		return timer.Begin(name)
	}
	endPhase := func(idx int, note string) {
		if timer != nil {
			timer.End(idx, note)
		}
	}

	p := phase("lex")
	c.lexCount.Add(1)
	tokens, err := lexer.Tokenize(file, lexer.Options{Reporter: reporter})
	endPhase(p, fmt.Sprintf("%d tokens", len(tokens)))
	if err != nil {
		return nil, err
	}

	p = phase("parse")
	root, err := parser.Parse(tokens, parser.Options{
		Registry: c.registry(),
		Reporter: reporter,
	})
	endPhase(p, "")
	if err != nil {
		return nil, err
	}

	p = phase("normalize")
	err = htmlnorm.Normalize(root, htmlnorm.Options{
		HTML:     set.Enabled(options.FlagHTML),
		Reporter: reporter,
	})
	endPhase(p, "")
	if err != nil {
		return nil, err
	}

	p = phase("optimize")
	err = optimize.Apply(root, &optimize.Context{
		Options:  set,
		Registry: c.registry(),
		Reporter: reporter,
	})
	endPhase(p, "")
	if err != nil {
		return nil, err
	}

	p = phase("generate")
	art := codegen.Generate(root, codegen.Options{
		Debug:       set.Enabled(options.FlagInsertDebugSymbols),
		Files:       c.Files,
		Fingerprint: set.Fingerprint(),
	})
	endPhase(p, fmt.Sprintf("%d bytes", len(art.Output)))

	if c.Disk != nil {
		payload := DiskPayload{
			Schema:      diskCacheSchemaVersion,
			Path:        file.Path,
			Fingerprint: key.fingerprint,
			Artifact:    *art,
		}
		// Best effort; a failed write only costs the next process a compile.
		_ = c.Disk.Put(key, &payload)
	}

	res := &Result{Path: file.Path, Artifact: art, Bag: bag}
	if timer != nil {
		report := timer.Report()
		res.Timing = &report
	}
	return res, nil
}

func (c *Compiler) maxDiagnostics() int {
	if c.MaxDiagnostics > 0 {
		return c.MaxDiagnostics
	}
	return DefaultMaxDiagnostics
}
