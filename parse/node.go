// Package parse implements the recursive-descent reader for the
// interpolation engine's template grammar. It turns template text into a
// raw parse tree; see package ast for the typed, evaluation-ready form.
package parse

import "fmt"

// Kind identifies the type of a raw parse tree node.
type Kind int

const (
	KindTree         Kind = iota // root container
	KindText                     // literal run of non-special bytes
	KindEscape                   // $c, c one of $ @ ( ) : ;
	KindToken                    // $name
	KindString                   // (...) literal region
	KindCall                     // $name(...)
	KindArgument                 // a single call argument
	KindAtExpression             // @(...)
	KindAtKey                    // key half of an at-expression entry
	KindAtValue                  // value half of an at-expression entry
)

func (k Kind) String() string {
	switch k {
	case KindTree:
		return "tree"
	case KindText:
		return "text"
	case KindEscape:
		return "escape"
	case KindToken:
		return "token"
	case KindString:
		return "string"
	case KindCall:
		return "call"
	case KindArgument:
		return "argument"
	case KindAtExpression:
		return "at_expression"
	case KindAtKey:
		return "at_key"
	case KindAtValue:
		return "at_value"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Range is an inclusive byte span into the source text, 1-indexed to match
// the positions the grammar is specified over.
type Range struct {
	Start, End int
}

// Node is a raw parse tree node: a kind, its source range, an optional
// literal value, and an optional ordered list of children.
type Node struct {
	Kind     Kind
	Range    Range
	Value    string // set for text, escape, token (name), call (name)
	Children []*Node
	name     string // overrides Kind.String() for the root node (TreeNodeName)
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	if n.name != "" {
		return n.name
	}
	return n.Kind.String()
}

func (n *Node) append(child *Node) {
	n.Children = append(n.Children, child)
}

// Severity distinguishes parser errors (which blank the postprocessed AST)
// from warnings (which never affect evaluation).
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Error/warning codes, named per §7 of the spec. UNTERM_AT is emitted with
// SeverityWarning only: §4.1 is explicit that running out of input inside
// an at-expression degrades it to a literal "@" and warns, it never fails
// the parse outright (the §7 summary table's mention of UNTERM_AT among
// "parser errors" is reconciled in favor of §4.1's operational description).
const (
	BadChar        = "BAD_CHAR"
	UntermFunc     = "UNTERM_FUNC"
	UntermAt       = "UNTERM_AT"
	WarnUntermFunc = "WARN_UNTERM_FUNC"
)

// Record is a single error or warning attached to a Tree.
type Record struct {
	Code     string
	Message  string
	Node     *Node
	Range    Range
	Severity Severity
}

// Tree is the result of parsing one template.
type Tree struct {
	Root     *Node
	Source   string
	Errors   []Record
	Warnings []Record
}

// strictError is raised (as a panic) when Options.RaiseErrors aborts parsing
// at the first reported error; recovered in Parse.
type strictError struct{ Record Record }

func (e strictError) Error() string { return e.Record.Message }
