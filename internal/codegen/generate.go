package codegen

import (
	"strconv"

	"tpp/internal/ast"
	"tpp/internal/source"
)

// DebugEntry maps one marked output region back to the original source.
// Entries are ordered by marker ID, which is also emission order.
type DebugEntry struct {
	ID     uint32 `msgpack:"id"`
	File   string `msgpack:"file"`
	Line   uint32 `msgpack:"line"`
	Col    uint32 `msgpack:"col"`
	Length uint32 `msgpack:"len"`
}

// Artifact is the result of one compile: the regenerated source, the
// debug map (empty without debug mode), and the option-set fingerprint it
// was produced under. Immutable once returned.
type Artifact struct {
	Output      string       `msgpack:"output"`
	DebugMap    []DebugEntry `msgpack:"debug_map,omitempty"`
	Fingerprint string       `msgpack:"fingerprint"`
}

type Options struct {
	// Debug interleaves `{% !b id %}` / `{% !e id %}` marker pairs around
	// each region produced from a distinct source span.
	Debug bool
	// Files resolves spans to file/line/column for the debug map.
	Files *source.FileSet
	// Fingerprint of the option set, recorded on the artifact.
	Fingerprint string
}

// Generate serializes the optimized tree into an artifact.
func Generate(root *ast.Node, opts Options) *Artifact {
	art := &Artifact{Fingerprint: opts.Fingerprint}
	w := &writer{}
	if opts.Debug {
		g := &debugState{files: opts.Files}
		w.mark = g.mark
		defer func() { art.DebugMap = g.entries }()
	}
	w.node(root)
	art.Output = w.out.String()
	return art
}

type debugState struct {
	files   *source.FileSet
	entries []DebugEntry
	next    uint32
}

// mark brackets the body's output with a numbered marker pair and records
// where the region came from. Nested regions nest their markers.
func (g *debugState) mark(w *writer, span source.Span, body func()) {
	id := g.next
	g.next++

	entry := DebugEntry{ID: id, Length: span.Len()}
	if g.files != nil {
		if f := g.files.Get(span.File); f != nil {
			entry.File = f.Path
		}
		start, _ := g.files.Resolve(span)
		entry.Line = start.Line
		entry.Col = start.Col
	}
	g.entries = append(g.entries, entry)

	n := strconv.FormatUint(uint64(id), 10)
	w.out.WriteString("{% !b ")
	w.out.WriteString(n)
	w.out.WriteString(" %}")
	body()
	w.out.WriteString("{% !e ")
	w.out.WriteString(n)
	w.out.WriteString(" %}")
}
