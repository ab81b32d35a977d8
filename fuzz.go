package interpolate

import "github.com/soy-lang/interpolate/parse"

// Fuzz exercises the parser with arbitrary byte input. With tokens
// enabled the grammar admits any input (an unterminated call degrades to
// a token, other unterminated constructs to literal text, rather than
// failing), so this mainly guards against panics and infinite loops in
// the byte-cursor recursion.
func Fuzz(data []byte) int {
	tree, err := parse.Parse(string(data), parse.Options{
		AllowTokens:        true,
		AllowFunctions:     true,
		AllowAtExpressions: true,
		TreeNodeName:       "tree",
	})
	if err != nil {
		return 0
	}
	if tree == nil {
		return 0
	}
	return 1
}
