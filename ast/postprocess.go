package ast

import (
	"strings"

	"github.com/soy-lang/interpolate/parse"
)

// Postprocess normalizes a raw parse tree into the evaluation-ready AST
// described in package ast. A tree that carries parser errors
// postprocesses to nil (an empty result), per the engine's degrade-to-empty
// contract on malformed input.
func Postprocess(tree *parse.Tree) []Node {
	if tree == nil || len(tree.Errors) > 0 {
		return nil
	}
	return postprocessList(tree.Root.Children)
}

// postprocessList converts a raw sibling list, merging adjacent Text
// nodes, used for the top level, for each call argument, and for each
// at-expression key/value.
func postprocessList(children []*parse.Node) []Node {
	var out []Node
	for _, c := range children {
		n := postprocessOne(c)
		if t, ok := n.(*Text); ok && len(out) > 0 {
			if prev, ok := out[len(out)-1].(*Text); ok {
				prev.Value += t.Value
				continue
			}
		}
		out = append(out, n)
	}
	return out
}

func postprocessOne(n *parse.Node) Node {
	switch n.Kind {
	case parse.KindText, parse.KindEscape:
		return &Text{Value: n.Value}
	case parse.KindToken:
		return &Token{Name: n.Value}
	case parse.KindString:
		var sb strings.Builder
		for _, c := range n.Children {
			sb.WriteString(c.Value)
		}
		return &Text{Value: sb.String()}
	case parse.KindCall:
		call := &Call{Name: n.Value}
		for _, c := range n.Children {
			if c.Kind == parse.KindArgument {
				call.Args = append(call.Args, postprocessList(c.Children))
			}
		}
		return call
	case parse.KindAtExpression:
		return postprocessAtExpr(n)
	default:
		// Argument, AtKey, AtValue are only ever processed through
		// postprocessList by their containing Call/AtExpr; reaching
		// here means a malformed tree, which we conservatively render
		// as empty text rather than propagating a nil Node.
		return &Text{}
	}
}

// postprocessAtExpr scans an at_expression's children, which alternate
// at_key and (optionally) at_value nodes: each at_key starts a new entry,
// and an immediately following at_value supplies its value. A key with no
// following value promotes the key to a bare value (§4.2).
func postprocessAtExpr(n *parse.Node) *AtExpr {
	expr := &AtExpr{}
	children := n.Children
	for i := 0; i < len(children); i++ {
		c := children[i]
		if c.Kind != parse.KindAtKey {
			continue
		}
		keyNodes := postprocessList(c.Children)
		if i+1 < len(children) && children[i+1].Kind == parse.KindAtValue {
			expr.Entries = append(expr.Entries, AtEntry{
				HasKey: true,
				Key:    keyNodes,
				Value:  postprocessList(children[i+1].Children),
			})
			i++
		} else {
			expr.Entries = append(expr.Entries, AtEntry{
				HasKey: false,
				Value:  keyNodes,
			})
		}
	}
	return expr
}
