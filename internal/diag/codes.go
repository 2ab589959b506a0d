package diag

import (
	"fmt"
)

// Code identifies a diagnostic kind. The numeric space is cut per
// compilation phase so codes sort in pipeline order.
type Code uint16

const (
	UnknownCode Code = 0

	// Lexical
	LexInfo               Code = 1000
	LexUnterminatedRaw    Code = 1001
	LexUnterminatedTag    Code = 1002
	LexUnterminatedString Code = 1003
	LexBadDirectiveName   Code = 1004
	LexBadHTMLTag         Code = 1005
	LexUnterminatedHTML   Code = 1006
	LexStrayRawEnd        Code = 1007

	// Directive grammar
	ParseInfo              Code = 2000
	ParseUnmatchedOpen     Code = 2001
	ParseUnexpectedClose   Code = 2002
	ParseStrayBranch       Code = 2003
	ParseBadArguments      Code = 2004
	ParseUnknownOption     Code = 2005
	ParseUnexpectedEndName Code = 2006

	// HTML structure
	StructInfo           Code = 3000
	StructUnmatchedClose Code = 3001
	StructUnclosedTag    Code = 3002
	StructBranchDiverges Code = 3003
	StructBlockInInline  Code = 3004

	// Constant folding
	FoldInfo       Code = 4000
	FoldEvalFailed Code = 4001

	// HTML validation
	ValInfo               Code = 5000
	ValUnknownTag         Code = 5001
	ValDuplicateAttribute Code = 5002
	ValInvalidAttribute   Code = 5003
	ValScriptType         Code = 5004
	ValStyleType          Code = 5005
	ValMissingHref        Code = 5006
	ValJavascriptHref     Code = 5007
	ValMissingAlt         Code = 5008
	ValDeprecatedTag      Code = 5009
	ValMissingTitle       Code = 5010

	// Options / configuration
	OptInfo        Code = 6000
	OptUnknownFlag Code = 6001

	// I/O
	IOInfo          Code = 7000
	IOLoadFileError Code = 7001
)

// ID returns the stable textual identifier used in golden files and CLI
// output, e.g. "TPP3003".
func (c Code) ID() string {
	return fmt.Sprintf("TPP%04d", uint16(c))
}

func (c Code) String() string {
	return c.ID()
}
