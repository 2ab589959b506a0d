// Package diag carries diagnostics produced by the compilation phases:
// severities, stable codes, source-span locations, and rendering helpers
// for CLI and golden-file output.
package diag
