package options

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Set is one resolved option state. The zero value is empty; Default()
// gives the built-in baseline.
type Set struct {
	flags map[string]bool
}

// Default returns the baseline every scope builds on: full HTML processing
// with whitespace compression, script/style merging and validation on,
// external packing and debug symbols off.
func Default() Set {
	s := Set{flags: make(map[string]bool)}
	for _, f := range []string{
		FlagHTML,
		FlagWhitespaceCompression,
		FlagMergeInternalJS,
		FlagMergeInternalCSS,
		FlagCompileJS,
		FlagCompileCSS,
		FlagValidateHTML,
		FlagRemoveEmptyClassAttrs,
	} {
		s.flags[f] = true
	}
	return s
}

// Empty returns a set with every flag off.
func Empty() Set {
	return Set{flags: make(map[string]bool)}
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	out := Set{flags: make(map[string]bool, len(s.flags))}
	for k, v := range s.flags {
		out.flags[k] = v
	}
	return out
}

// Enabled reports whether the canonical flag name is on.
func (s Set) Enabled(name string) bool {
	return s.flags[name]
}

// Apply sets one written flag ("html" / "no-html") in place.
func (s Set) Apply(written string) error {
	name, enabled, err := ParseFlag(written)
	if err != nil {
		return err
	}
	s.flags[name] = enabled
	return nil
}

// ApplyAll applies a scope's flag list in order; later entries win.
func (s Set) ApplyAll(written []string) error {
	for _, w := range written {
		if err := s.Apply(w); err != nil {
			return err
		}
	}
	return nil
}

// Enable and Disable set a canonical flag directly (CLI overrides).
func (s Set) Enable(name string)  { s.flags[name] = true }
func (s Set) Disable(name string) { s.flags[name] = false }

// Fingerprint returns a stable digest of the enabled flags, used as the
// option half of the compilation-unit cache key.
func (s Set) Fingerprint() string {
	names := make([]string, 0, len(s.flags))
	for name, on := range s.flags {
		if on {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	sum := sha256.Sum256([]byte(strings.Join(names, ",")))
	return hex.EncodeToString(sum[:8])
}

// EnabledFlags returns the enabled canonical names, sorted.
func (s Set) EnabledFlags() []string {
	names := make([]string, 0, len(s.flags))
	for name, on := range s.flags {
		if on {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (s Set) String() string {
	return fmt.Sprintf("options(%s)", strings.Join(s.EnabledFlags(), " "))
}
