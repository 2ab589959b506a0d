// Package compiler drives the full pipeline for one template and
// memoizes the result per (source content, option set) unit. The
// in-memory unit table serializes concurrent compiles of the same key;
// an optional msgpack disk cache carries artifacts across processes.
// Recompiling a base template does not invalidate templates that extend
// it; callers needing that force recompilation themselves.
package compiler
