package interpolate

import (
	"testing"

	"github.com/andreyvit/diff"
	"github.com/soy-lang/interpolate/data"
)

func interpolate(t *testing.T, pattern string, tokens map[string]data.Value, opts Options) string {
	t.Helper()
	in := New(opts)
	if err := in.SetPattern(pattern); err != nil {
		t.Fatalf("SetPattern(%q) error: %v", pattern, err)
	}
	return in.Interpolate(tokens)
}

func TestEscapesRoundTripToLiteralCharacters(t *testing.T) {
	got := interpolate(t, `$$ $@ $) $( $: $;`, nil, DefaultOptions())
	want := `$ @ ) ( : ;`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestAdjacentTokensConcatenate(t *testing.T) {
	tokens := map[string]data.Value{
		"token": data.String("value"),
		"other": data.String("s"),
	}
	got := interpolate(t, `$token$other`, tokens, DefaultOptions())
	if got != "values" {
		t.Errorf("got %q, want %q", got, "values")
	}
}

func TestAtExpressionStringifiesToFirstValue(t *testing.T) {
	got := interpolate(t, `@(A;B;C)`, nil, DefaultOptions())
	if got != "A" {
		t.Errorf("got %q, want %q", got, "A")
	}
}

func TestIndexOnAtExpressionResult(t *testing.T) {
	got := interpolate(t, `$index(@(A:1;A:2) A)`, nil, DefaultOptions())
	if got != "1" {
		t.Errorf("got %q, want %q", got, "1")
	}
}

func TestIfWithStringLiteralArgument(t *testing.T) {
	got := interpolate(t, `$if(1 (hello world))`, nil, DefaultOptions())
	if got != "hello world" {
		t.Errorf("got %q, want %q", got, "hello world")
	}
}

func TestSetWritesACustomUnderscoreToken(t *testing.T) {
	got := interpolate(t, `$set(_x 5)$_x`, map[string]data.Value{}, DefaultOptions())
	if got != "5" {
		t.Errorf("got %q, want %q", got, "5")
	}
}

func TestSetRefusesNonUnderscoreNameByDefault(t *testing.T) {
	opts := DefaultOptions()
	got := interpolate(t, `$set(x 5)$x`, map[string]data.Value{}, opts)
	if got != "" {
		t.Errorf("got %q, want empty (write refused, token stays unbound)", got)
	}
}

func TestDisabledFunctionsLeavesCallSyntaxLiteral(t *testing.T) {
	opts := DefaultOptions()
	opts.AllowFunctions = false
	tokens := map[string]data.Value{"upper": data.String("f")}
	got := interpolate(t, `$upper(x)`, tokens, opts)
	if got != "f(x)" {
		t.Errorf("got %q, want %q", got, "f(x)")
	}
}

func TestAtExpressionFlattensNestedMultiMapValues(t *testing.T) {
	got := interpolate(t, `@(@(A;B) @(C))`, nil, DefaultOptions())
	if got != "A" {
		t.Errorf("got %q, want %q", got, "A")
	}
	// Verify the full flattened set, not just the first value.
	in := New(DefaultOptions())
	if err := in.SetPattern(`@(@(A;B) @(C))`); err != nil {
		t.Fatal(err)
	}
	s := &state{
		tokens: map[string]data.Value{}, functions: in.functions, built: in.built,
		allowMultiMaps: true, allowTokens: true, allowFunctions: true,
		rng: newDefaultRng(), translator: in.opts.Translator,
	}
	v := s.evalList(s.built)
	mm, ok := v.(*data.MultiMap)
	if !ok {
		t.Fatalf("expected *data.MultiMap, got %T", v)
	}
	if mm.Concat(",", 1, -1) != "A,B,C" {
		t.Errorf("got %q, want %q", mm.Concat(",", 1, -1), "A,B,C")
	}
}

func TestAtExpressionKeyFanOutOverMultiMapKey(t *testing.T) {
	in := New(DefaultOptions())
	if err := in.SetPattern(`@(@(A;B):C)`); err != nil {
		t.Fatal(err)
	}
	s := &state{
		tokens: map[string]data.Value{}, functions: in.functions, built: in.built,
		allowMultiMaps: true, allowTokens: true, allowFunctions: true,
		rng: newDefaultRng(), translator: in.opts.Translator,
	}
	mm, ok := s.evalList(s.built).(*data.MultiMap)
	if !ok {
		t.Fatalf("expected *data.MultiMap")
	}
	if got, want := mm.Size(), 2; got != want {
		t.Fatalf("Size() = %d, want %d", got, want)
	}
	if v := mm.Get("A", nil); v == nil || v.String() != "C" {
		t.Errorf("entry for key A = %v, want C", v)
	}
	if v := mm.Get("B", nil); v == nil || v.String() != "C" {
		t.Errorf("entry for key B = %v, want C", v)
	}
}

func TestMultilineAtExpressionConcatMatchesExpectedOutput(t *testing.T) {
	tokens := map[string]data.Value{
		"other": data.String("s"),
	}
	got := interpolate(t, "$concats(\n @(one;two;three))", tokens, DefaultOptions())
	want := "one\ntwo\nthree"
	if got != want {
		t.Errorf("concats output mismatch:\n%s", diff.LineDiff(want, got))
	}
}

func TestMultiMapPassthroughDisabledStringifiesArgument(t *testing.T) {
	opts := DefaultOptions()
	opts.AllowMultiMaps = false
	// With passthrough off, the @(...) argument is stringified (to its
	// first value, "A") before list() ever sees it, so list() re-wraps
	// that single string as a one-entry MultiMap rather than listing the
	// original three entries.
	got := interpolate(t, `$list(@(A;B;C))`, nil, opts)
	if got != "A" {
		t.Errorf("got %q, want %q", got, "A")
	}
}
