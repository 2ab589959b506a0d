package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tpp/internal/diag"
	"tpp/internal/lexer"
	"tpp/internal/source"
	"tpp/internal/token"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [flags] template.html",
	Short: "Tokenize a template file",
	Long:  `Tokenize breaks a template down into its text, directive, and expression tokens`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

func init() {
	tokenizeCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runTokenize(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	fs := source.NewFileSet()
	id, err := fs.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", args[0], err)
	}

	bag := diag.NewBag(maxDiagnostics)
	tokens, lexErr := lexer.Tokenize(fs.Get(id), lexer.Options{
		Reporter: diag.BagReporter{Bag: bag},
	})

	if bag.HasWarnings() {
		diag.Pretty(os.Stderr, bag, fs, diag.PrettyOpts{
			Color:   useColor(cmd, os.Stderr),
			Context: 2,
		})
	}
	if lexErr != nil {
		return fmt.Errorf("tokenization failed: %w", lexErr)
	}

	switch format {
	case "pretty":
		return writeTokensPretty(tokens, fs)
	case "json":
		return writeTokensJSON(tokens, fs)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeTokensPretty(tokens []token.Token, fs *source.FileSet) error {
	for _, tok := range tokens {
		start, _ := fs.Resolve(tok.Span)
		extra := ""
		switch {
		case tok.Name != "" && tok.Args != "":
			extra = fmt.Sprintf("  name=%s args=%q", tok.Name, tok.Args)
		case tok.Name != "":
			extra = "  name=" + tok.Name
		case tok.Args != "":
			extra = fmt.Sprintf("  args=%q", tok.Args)
		}
		if _, err := fmt.Printf("%4d:%-3d %-12s %q%s\n",
			start.Line, start.Col, tok.Kind, tok.Text, extra); err != nil {
			return err
		}
	}
	return nil
}

type tokenJSON struct {
	Kind string `json:"kind"`
	Line uint32 `json:"line"`
	Col  uint32 `json:"col"`
	Text string `json:"text"`
	Name string `json:"name,omitempty"`
	Args string `json:"args,omitempty"`
}

func writeTokensJSON(tokens []token.Token, fs *source.FileSet) error {
	out := make([]tokenJSON, len(tokens))
	for i, tok := range tokens {
		start, _ := fs.Resolve(tok.Span)
		out[i] = tokenJSON{
			Kind: tok.Kind.String(),
			Line: start.Line,
			Col:  start.Col,
			Text: tok.Text,
			Name: tok.Name,
			Args: tok.Args,
		}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
