package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tpp/internal/compiler"
	"tpp/internal/diag"
	"tpp/internal/source"
)

var compileAllCmd = &cobra.Command{
	Use:   "compile-all [flags] [dir]",
	Short: "Compile every template under a directory",
	Long: `Compile-all walks the template root (from tpp.toml, or the given
directory) and compiles every *.html template in parallel. Per-template
failures are reported and do not stop the batch.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompileAll,
}

func init() {
	compileAllCmd.Flags().StringArrayP("option", "O", nil, "override a compilation flag for every template (repeatable)")
	compileAllCmd.Flags().String("out-dir", "compiled", "directory to write compiled templates into (mirrors source layout)")
	compileAllCmd.Flags().IntP("jobs", "j", 0, "maximum parallel compilations (0 = number of CPUs)")
	compileAllCmd.Flags().String("ui", "auto", "interactive progress display (auto|on|off)")
	compileAllCmd.Flags().Bool("no-html-fallback", true, "retry templates without structural processing when HTML reconciliation fails")
	compileAllCmd.Flags().Bool("disk-cache", false, "reuse compiled artifacts from the user cache directory")
	compileAllCmd.Flags().Bool("all", false, "recompile everything, ignoring cached artifacts (needed after editing a base template)")
}

func runCompileAll(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	overrides, _ := cmd.Flags().GetStringArray("option")
	outDir, _ := cmd.Flags().GetString("out-dir")
	jobs, _ := cmd.Flags().GetInt("jobs")
	uiFlag, _ := cmd.Flags().GetString("ui")
	fallback, _ := cmd.Flags().GetBool("no-html-fallback")
	diskCache, _ := cmd.Flags().GetBool("disk-cache")
	force, _ := cmd.Flags().GetBool("all")
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	maxDiagnostics, _ := cmd.Root().PersistentFlags().GetInt("max-diagnostics")

	tui, err := useTUI(uiFlag)
	if err != nil {
		return err
	}

	fs := source.NewFileSet()
	c := compiler.New(fs)
	c.MaxDiagnostics = maxDiagnostics
	c.Force = force
	if diskCache {
		disk, err := compiler.OpenDiskCache("tpp")
		if err != nil {
			return fmt.Errorf("failed to open disk cache: %w", err)
		}
		c.Disk = disk
	}

	batch := compiler.BatchOptions{
		Jobs:           jobs,
		Overrides:      overrides,
		NoHTMLFallback: fallback,
	}

	var results []compiler.BatchResult
	if tui && !quiet {
		results, err = runBatchWithUI(cmd.Context(), c, dir, batch)
	} else {
		results, err = c.CompileDir(cmd.Context(), dir, batch)
	}
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(os.Stderr, "no templates found")
		return nil
	}

	failed := 0
	cached := 0
	fellBack := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", r.Path, r.Err)
			continue
		}
		if r.Result.Cached {
			cached++
		}
		if r.Fallback {
			fellBack++
		}
		if r.Result.Bag != nil && r.Result.Bag.HasWarnings() && !quiet {
			diag.Pretty(os.Stderr, r.Result.Bag, fs, diag.PrettyOpts{
				Color:   useColor(cmd, os.Stderr),
				Context: 2,
			})
		}
		if err := writeArtifact(outDir, r); err != nil {
			return err
		}
	}

	if !quiet {
		printSummary(len(results), failed, cached, fellBack, useColor(cmd, os.Stderr))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d templates failed", failed, len(results))
	}
	return nil
}

// useTUI decides the batch display from the --ui flag and the terminal.
func useTUI(flag string) (bool, error) {
	switch strings.TrimSpace(strings.ToLower(flag)) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "", "auto":
		return isTerminal(os.Stdout), nil
	default:
		return false, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", flag)
	}
}

func writeArtifact(outDir string, r compiler.BatchResult) error {
	dest := filepath.Join(outDir, filepath.FromSlash(r.Path))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte(r.Result.Artifact.Output), 0o644)
}

func printSummary(total, failed, cached, fellBack int, colored bool) {
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)
	if !colored {
		green.DisableColor()
		red.DisableColor()
		yellow.DisableColor()
	}

	ok := total - failed
	if failed == 0 {
		green.Fprintf(os.Stderr, "compiled %d templates", ok)
	} else {
		red.Fprintf(os.Stderr, "compiled %d of %d templates (%d failed)", ok, total, failed)
	}
	if cached > 0 {
		yellow.Fprintf(os.Stderr, ", %d from cache", cached)
	}
	if fellBack > 0 {
		yellow.Fprintf(os.Stderr, ", %d without html processing", fellBack)
	}
	fmt.Fprintln(os.Stderr)
}
