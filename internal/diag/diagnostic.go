package diag

import (
	"tpp/internal/source"
)

// Severity ranks a finding. Info and warnings leave the unit compilable;
// an error fails it.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityNames = [...]string{"INFO", "WARNING", "ERROR"}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "UNKNOWN"
}

// Note attaches a secondary location to a diagnostic, e.g. the opening tag
// of an unclosed element.
type Note struct {
	Span source.Span
	Msg  string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
}
