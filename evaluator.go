package interpolate

import (
	"log"
	"strings"

	"github.com/soy-lang/interpolate/ast"
	"github.com/soy-lang/interpolate/data"
	"github.com/soy-lang/interpolate/gettext"
)

// Logger receives diagnostic output from Bundle's background reload path.
// Core evaluation never writes to it.
var Logger = log.New(log.Writer(), "interpolate: ", log.LstdFlags)

// state is the evaluator: it owns the token map, the dispatch table, the
// RNG, and the feature flags that shape a single interpolate call. It is
// not part of the public API (see Interpolator).
type state struct {
	tokens    map[string]data.Value
	functions map[string]Func
	built     []ast.Node

	allowTokens                  bool
	allowFunctions               bool
	allowMultiMaps               bool
	allowCharacterEntities       bool
	requireCustomTokenUnderscore bool

	rng        Rng
	translator gettext.Translator
	locale     string
}

// mergeParts implements §4.4's value-merging rule: a single-element
// accumulator is returned unchanged (preserving MultiMap identity);
// otherwise every element is stringified and concatenated.
func mergeParts(parts []data.Value) data.Value {
	if len(parts) == 1 {
		return parts[0]
	}
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(p.String())
	}
	return data.String(sb.String())
}

// evalList evaluates a node sequence (an argument, a top-level body, an
// at-key/at-value) to a single merged value. Nodes that evaluate to
// nothing (absent) contribute no element to the merge.
func (s *state) evalList(nodes []ast.Node) data.Value {
	var parts []data.Value
	for _, n := range nodes {
		if v, ok := s.evalNode(n); ok {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return data.String("")
	}
	return mergeParts(parts)
}

// convert normalizes a value for consumption by a call argument: strings
// pass through, MultiMap passes through iff allowMultiMaps is on (else
// stringified), and a nil value (absent) becomes empty string.
func (s *state) convert(v data.Value) data.Value {
	if v == nil {
		return data.String("")
	}
	if mm, ok := v.(*data.MultiMap); ok {
		if s.allowMultiMaps {
			return mm
		}
		return data.String(mm.String())
	}
	return v
}

func (s *state) evalNode(n ast.Node) (data.Value, bool) {
	switch n := n.(type) {
	case *ast.Text:
		return data.String(n.Value), true
	case *ast.Token:
		if !s.allowTokens {
			return nil, false
		}
		v, ok := s.tokens[n.Name]
		return v, ok
	case *ast.Call:
		return s.evalCall(n)
	case *ast.AtExpr:
		return s.evalAtExpr(n), true
	default:
		return nil, false
	}
}

func (s *state) evalCall(n *ast.Call) (data.Value, bool) {
	if !s.allowFunctions {
		return nil, false
	}
	fn, ok := s.functions[strings.ToLower(n.Name)]
	if !ok {
		return nil, false
	}
	args := make([]data.Value, len(n.Args))
	for i, argNodes := range n.Args {
		args[i] = s.convert(s.evalList(argNodes))
	}
	return fn(s, args)
}

// evalAtParts evaluates an at-key/at-value node list the way evalList does,
// except a multi-element result composed of MultiMap parts concatenates
// those parts into one MultiMap instead of stringifying them. This is what
// lets "@(@(A;B) @(C))" flatten into a single three-entry MultiMap (§4.4)
// rather than collapsing to the string "A C" the way a plain call argument
// would: mergeParts's stringify-on-multi-element rule is correct for call
// arguments, but an at-expression's own value position is documented to
// flatten MultiMap-valued parts, so it gets this dedicated merge instead.
func (s *state) evalAtParts(nodes []ast.Node) data.Value {
	var parts []data.Value
	for _, n := range nodes {
		if v, ok := s.evalNode(n); ok {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return data.String("")
	}
	if len(parts) == 1 {
		return parts[0]
	}
	var sources []data.Source
	for _, p := range parts {
		if mm, ok := p.(*data.MultiMap); ok {
			sources = append(sources, mm)
		}
	}
	if sources == nil {
		return mergeParts(parts)
	}
	return data.New(sources...)
}

// evalAtExpr builds a MultiMap from an AtExpr's entries, per §4.4:
//   - value-only entry: a MultiMap value flattens into the outer map
//     (truthy keys preserved); any other value is emitted as (str(v), v)
//     when truthy.
//   - keyed entry with a MultiMap key: one entry per key-value, using the
//     key value's stringification as the emitted key.
//   - keyed entry with a scalar key: (key, value) when key is truthy.
func (s *state) evalAtExpr(n *ast.AtExpr) data.Value {
	var entries data.Entries
	for _, entry := range n.Entries {
		if !entry.HasKey {
			v := s.evalAtParts(entry.Value)
			if mm, ok := v.(*data.MultiMap); ok {
				for _, e := range mm.Pairs() {
					if e.Key.Truthy() {
						entries = append(entries, e)
					}
				}
				continue
			}
			if v.Truthy() {
				entries = append(entries, data.Entry{Key: data.String(v.String()), Value: v})
			}
			continue
		}
		key := s.evalAtParts(entry.Key)
		value := s.evalAtParts(entry.Value)
		if keyMM, ok := key.(*data.MultiMap); ok {
			for _, kv := range keyMM.Values() {
				entries = append(entries, data.Entry{Key: data.String(kv.String()), Value: value})
			}
			continue
		}
		if key.Truthy() {
			entries = append(entries, data.Entry{Key: key, Value: value})
		}
	}
	return data.New(entries)
}

// setTokenValidated implements $set's write guard: when
// requireCustomTokenUnderscore is set, a write is refused unless name
// starts with '_' or already has a binding.
func (s *state) setTokenValidated(name string, value data.Value) {
	if s.requireCustomTokenUnderscore {
		_, bound := s.tokens[name]
		if !strings.HasPrefix(name, "_") && !bound {
			return
		}
	}
	s.tokens[name] = value
}
