package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tpp/internal/compiler"
	"tpp/internal/diag"
	"tpp/internal/options"
	"tpp/internal/source"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] template.html",
	Short: "Compile a single template",
	Long: `Compile runs the full pipeline on one template: tokenizing, directive
parsing, HTML normalization, the optimization passes, and output
generation. Options come from tpp.toml (looked up from the template's
directory) with --option overrides on top.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().StringArrayP("option", "O", nil, "override a compilation flag (repeatable, e.g. -O no-html)")
	compileCmd.Flags().StringP("out", "o", "", "write output to file instead of stdout")
	compileCmd.Flags().Bool("debug-symbols", false, "interleave debug markers mapping output to source positions")
	compileCmd.Flags().Bool("no-html-fallback", false, "retry without structural processing when HTML reconciliation fails")
}

func runCompile(cmd *cobra.Command, args []string) error {
	path := args[0]

	overrides, _ := cmd.Flags().GetStringArray("option")
	outPath, _ := cmd.Flags().GetString("out")
	debugSymbols, _ := cmd.Flags().GetBool("debug-symbols")
	fallback, _ := cmd.Flags().GetBool("no-html-fallback")
	timings, _ := cmd.Root().PersistentFlags().GetBool("timings")
	maxDiagnostics, _ := cmd.Root().PersistentFlags().GetInt("max-diagnostics")

	set, err := resolveOptions(path, overrides)
	if err != nil {
		return err
	}
	if debugSymbols {
		set.Enable(options.FlagInsertDebugSymbols)
	}

	fs := source.NewFileSet()
	c := compiler.New(fs)
	c.MaxDiagnostics = maxDiagnostics
	c.Timings = timings

	res, err := c.Compile(path, set)
	if err != nil && fallback {
		retry := set.Clone()
		retry.Disable(options.FlagHTML)
		res, err = c.Compile(path, retry)
	}
	if res != nil && res.Bag != nil && res.Bag.Len() > 0 {
		diag.Pretty(os.Stderr, res.Bag, fs, diag.PrettyOpts{
			Color:   useColor(cmd, os.Stderr),
			Context: 2,
		})
	}
	if err != nil {
		return fmt.Errorf("compilation failed: %w", err)
	}

	if timings && res.Timing != nil {
		fmt.Fprint(os.Stderr, res.Timing.Summary())
	}

	if outPath == "" {
		_, err := os.Stdout.WriteString(res.Artifact.Output)
		return err
	}
	return os.WriteFile(outPath, []byte(res.Artifact.Output), 0o644)
}

// resolveOptions builds the option set for a template path: tpp.toml
// scopes first, command-line overrides last.
func resolveOptions(path string, overrides []string) (options.Set, error) {
	set := options.Default()

	manifest, found, err := options.LoadManifest(filepath.Dir(path))
	if err != nil {
		return set, err
	}
	if found {
		abs, err := filepath.Abs(path)
		if err != nil {
			return set, err
		}
		rel, err := filepath.Rel(manifest.TemplateRoot(), abs)
		if err == nil && !filepath.IsAbs(rel) {
			set, err = manifest.Resolve(filepath.ToSlash(rel))
			if err != nil {
				return set, err
			}
		}
	}

	if err := set.ApplyAll(overrides); err != nil {
		return set, err
	}
	return set, nil
}
