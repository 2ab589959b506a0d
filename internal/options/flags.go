// Package options resolves the per-unit compilation option set: built-in
// defaults, tpp.toml scopes (default plus per-application), and inline
// `{% !flag %}` overrides, each layer overriding the previous one.
package options

import (
	"fmt"
	"strings"
)

// Recognized flag names. The `no-` prefixed spelling of each flag disables
// it; both spellings resolve to the same canonical name.
const (
	FlagWhitespaceCompression = "whitespace-compression"
	FlagHTML                  = "html"
	FlagMergeInternalJS       = "merge-internal-javascript"
	FlagMergeInternalCSS      = "merge-internal-css"
	FlagPackExternalJS        = "pack-external-javascript"
	FlagPackExternalCSS       = "pack-external-css"
	FlagCompileCSS            = "compile-css"
	FlagCompileJS             = "compile-javascript"
	FlagParseAllHTMLTags      = "parse-all-html-tags"
	FlagValidateHTML          = "validate-html"
	FlagRemoveEmptyClassAttrs = "html-remove-empty-class-attributes"
	FlagCheckAltAndTitleAttrs = "html-check-alt-and-title-attributes"
	FlagRelaxHTMLValidation   = "relax-html-validation"
	FlagInsertDebugSymbols    = "insert-debug-symbols"
)

var knownFlags = map[string]bool{
	FlagWhitespaceCompression: true,
	FlagHTML:                  true,
	FlagMergeInternalJS:       true,
	FlagMergeInternalCSS:      true,
	FlagPackExternalJS:        true,
	FlagPackExternalCSS:       true,
	FlagCompileCSS:            true,
	FlagCompileJS:             true,
	FlagParseAllHTMLTags:      true,
	FlagValidateHTML:          true,
	FlagRemoveEmptyClassAttrs: true,
	FlagCheckAltAndTitleAttrs: true,
	FlagRelaxHTMLValidation:   true,
	FlagInsertDebugSymbols:    true,
}

// ParseFlag splits a written flag into its canonical name and value.
// "no-html" yields ("html", false).
func ParseFlag(written string) (name string, enabled bool, err error) {
	name, enabled = written, true
	if rest, ok := strings.CutPrefix(written, "no-"); ok {
		name, enabled = rest, false
	}
	if !knownFlags[name] {
		return "", false, fmt.Errorf("unknown option flag %q", written)
	}
	return name, enabled, nil
}
