package directive

import (
	"fmt"
	"sort"
	"sync"
)

// Purity declares whether a directive's output depends only on its literal
// arguments. Purity is asserted by the registrant, not verified.
type Purity uint8

const (
	ContextDependent Purity = iota
	Pure
)

func (p Purity) String() string {
	if p == Pure {
		return "pure"
	}
	return "context-dependent"
}

// Evaluator computes a pure directive's literal output from already-parsed
// positional arguments. It is only invoked when every argument is a literal.
type Evaluator func(args []string) (string, error)

// Entry describes one registered directive.
type Entry struct {
	Name string

	// Block reports whether `{% name %}` opens a block closed by
	// `{% endname %}`. Leaf directives stand alone.
	Block bool

	// BranchKeywords are the alternate-branch tag names accepted between
	// the open and end tags, e.g. "elif"/"else" for if, "empty" for for.
	BranchKeywords []string

	Purity    Purity
	Evaluator Evaluator

	// ArgParser turns the raw argument string into positional arguments and
	// reports whether they are all literal (fold-eligible). Nil means
	// ParseLiteralArgs. Pure directives whose grammar uses bare keywords
	// (templatetag) supply their own.
	ArgParser func(raw string) (args []string, literal bool)
}

// Registry is the capability table the parser and the folder consult.
// Registration happens during process init; Freeze makes the table
// read-only, after which concurrent lookups need no locking.
type Registry struct {
	mu       sync.Mutex
	frozen   bool
	entries  map[string]*Entry
	branches map[string]bool // alternate-branch keywords of all block entries
}

func NewRegistry() *Registry {
	return &Registry{
		entries:  make(map[string]*Entry),
		branches: make(map[string]bool),
	}
}

// Register adds an entry. Registering a duplicate name or registering after
// Freeze is a hard error: directive tables are built once at startup.
func (r *Registry) Register(e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("directive registry is frozen, cannot register %q", e.Name)
	}
	if e.Name == "" {
		return fmt.Errorf("directive name must not be empty")
	}
	if _, dup := r.entries[e.Name]; dup {
		return fmt.Errorf("directive %q registered twice", e.Name)
	}
	if e.Purity == Pure && e.Evaluator == nil {
		return fmt.Errorf("pure directive %q has no evaluator", e.Name)
	}
	if len(e.BranchKeywords) > 0 && !e.Block {
		return fmt.Errorf("leaf directive %q declares branch keywords", e.Name)
	}
	stored := e
	r.entries[e.Name] = &stored
	for _, kw := range e.BranchKeywords {
		r.branches[kw] = true
	}
	return nil
}

// MustRegister is Register for init-time built-in tables.
func (r *Registry) MustRegister(e Entry) {
	if err := r.Register(e); err != nil {
		panic(err)
	}
}

// Freeze locks the registry. Idempotent.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Lookup returns the entry for name. Safe for concurrent use after Freeze.
func (r *Registry) Lookup(name string) (*Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// IsBranchKeyword reports whether name is an alternate-branch keyword of
// any registered block directive.
func (r *Registry) IsBranchKeyword(name string) bool {
	return r.branches[name]
}

// Names returns all registered directive names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = newBuiltinRegistry()

// Default returns the process-wide registry holding the built-ins plus any
// externally registered directives.
func Default() *Registry {
	return defaultRegistry
}

// Register adds an entry to the default registry. External pure directives
// must be registered before the first compile.
func Register(e Entry) error {
	return defaultRegistry.Register(e)
}

// Freeze locks the default registry; the compiler calls this before the
// first compile.
func Freeze() {
	defaultRegistry.Freeze()
}
