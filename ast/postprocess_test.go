package ast

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/soy-lang/interpolate/parse"
)

func build(t *testing.T, input string, opts parse.Options) []Node {
	t.Helper()
	tree, err := parse.Parse(input, opts)
	if err != nil {
		t.Fatalf("parse.Parse(%q) returned error: %v", input, err)
	}
	return Postprocess(tree)
}

func TestPostprocessMergesAdjacentText(t *testing.T) {
	// "$$a$@" is escape('$') + text("a") + escape('@'): escape and text
	// both flatten to Text, so all three must merge into one node.
	nodes := build(t, "$$a$@", parse.DefaultOptions())
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1 merged Text node: %#v", len(nodes), nodes)
	}
	text, ok := nodes[0].(*Text)
	if !ok || text.Value != "$a@" {
		t.Errorf("got %#v, want Text{$a@}", nodes[0])
	}
}

func TestPostprocessToken(t *testing.T) {
	nodes := build(t, "$name", parse.DefaultOptions())
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(nodes))
	}
	tok, ok := nodes[0].(*Token)
	if !ok || tok.Name != "name" {
		t.Errorf("got %#v, want Token{name}", nodes[0])
	}
}

func TestPostprocessCallFlattensArgs(t *testing.T) {
	nodes := build(t, "$concat(a$$b c)", parse.DefaultOptions())
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(nodes))
	}
	call, ok := nodes[0].(*Call)
	if !ok {
		t.Fatalf("got %#v, want *Call", nodes[0])
	}
	if call.Name != "concat" {
		t.Errorf("call.Name = %q, want concat", call.Name)
	}
	if len(call.Args) != 2 {
		t.Fatalf("got %d args, want 2: %#v", len(call.Args), call.Args)
	}
	// "a$$b" is text("a") + escape('$') + text("b"): all Text, must merge
	// into a single argument node despite three raw children.
	if len(call.Args[0]) != 1 {
		t.Fatalf("first arg has %d nodes, want 1 merged Text: %#v", len(call.Args[0]), call.Args[0])
	}
	if got := call.Args[0][0].(*Text).Value; got != "a$b" {
		t.Errorf("first arg = %q, want a$b", got)
	}
	if got := call.Args[1][0].(*Text).Value; got != "c" {
		t.Errorf("second arg = %q, want c", got)
	}
}

func TestPostprocessStringLiteralFlattensToText(t *testing.T) {
	nodes := build(t, "$if(1 (hello $$world))", parse.DefaultOptions())
	call := nodes[0].(*Call)
	arg := call.Args[1]
	if len(arg) != 1 {
		t.Fatalf("got %d nodes in string-literal argument, want 1: %#v", len(arg), arg)
	}
	if got := arg[0].(*Text).Value; got != "hello $world" {
		t.Errorf("got %q, want %q", got, "hello $world")
	}
}

func TestPostprocessAtExprKeyedEntries(t *testing.T) {
	nodes := build(t, "@(A:1;B:2)", parse.DefaultOptions())
	expr := nodes[0].(*AtExpr)
	want := &AtExpr{Entries: []AtEntry{
		{HasKey: true, Key: []Node{&Text{Value: "A"}}, Value: []Node{&Text{Value: "1"}}},
		{HasKey: true, Key: []Node{&Text{Value: "B"}}, Value: []Node{&Text{Value: "2"}}},
	}}
	if diff := cmp.Diff(want, expr); diff != "" {
		t.Errorf("at-expression mismatch (-want +got):\n%s", diff)
	}
}

func TestPostprocessAtExprBareValuesPromoteKeyToValue(t *testing.T) {
	nodes := build(t, "@(A;B)", parse.DefaultOptions())
	expr := nodes[0].(*AtExpr)
	want := &AtExpr{Entries: []AtEntry{
		{HasKey: false, Value: []Node{&Text{Value: "A"}}},
		{HasKey: false, Value: []Node{&Text{Value: "B"}}},
	}}
	if diff := cmp.Diff(want, expr); diff != "" {
		t.Errorf("at-expression mismatch (-want +got):\n%s", diff)
	}
}

func TestPostprocessTreeWithErrorsYieldsNil(t *testing.T) {
	tree := &parse.Tree{
		Root:   &parse.Node{Kind: parse.KindTree},
		Errors: []parse.Record{{Code: parse.BadChar, Message: "boom"}},
	}
	if nodes := Postprocess(tree); nodes != nil {
		t.Errorf("got %#v, want nil for a tree with errors", nodes)
	}
}

func TestPostprocessNilTreeYieldsNil(t *testing.T) {
	if nodes := Postprocess(nil); nodes != nil {
		t.Errorf("got %#v, want nil", nodes)
	}
}
