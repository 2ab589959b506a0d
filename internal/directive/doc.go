// Package directive holds the capability table of template directives:
// which names open blocks, which branch keywords they accept, and which are
// pure enough to evaluate at compile time. The table is built once at
// process start and frozen before the first compile.
package directive
