package interpolate

import (
	"fmt"

	"github.com/soy-lang/interpolate/ast"
	"github.com/soy-lang/interpolate/data"
	"github.com/soy-lang/interpolate/gettext"
	"github.com/soy-lang/interpolate/parse"
)

// Options carries every evaluator feature flag plus the library's
// include/exclude policy and optional translation backend.
type Options struct {
	AllowTokens                  bool
	AllowFunctions               bool
	AllowAtExpressions           bool
	AllowMultiMaps               bool
	AllowCharacterEntities       bool
	RequireCustomTokenUnderscore bool

	Library LibraryOptions

	Translator gettext.Translator
	Locale     string

	// RaiseErrors mirrors parse.Options.RaiseErrors: SetPattern returns an
	// error instead of silently producing an empty-bodied pattern.
	RaiseErrors bool
}

// DefaultOptions matches §4.5: tokens, multimaps, functions,
// character-entities, and custom-underscore all on.
func DefaultOptions() Options {
	return Options{
		AllowTokens:                  true,
		AllowFunctions:               true,
		AllowAtExpressions:           true,
		AllowMultiMaps:               true,
		AllowCharacterEntities:       true,
		RequireCustomTokenUnderscore: true,
		Translator:                   gettext.None,
	}
}

// Interpolator is the public entry point: it owns a parser configuration,
// a compiled function table, and the most recently set pattern. Multiple
// Interpolate calls may follow one SetPattern with different token maps.
type Interpolator struct {
	opts      Options
	parseOpts parse.Options
	functions map[string]Func
	built     []ast.Node
	rng       Rng
}

// New creates an Interpolator from options, building its function table
// once up front per §9's "built once at evaluator construction".
func New(opts Options) *Interpolator {
	if opts.Translator == nil {
		opts.Translator = gettext.None
	}
	return &Interpolator{
		opts: opts,
		parseOpts: parse.Options{
			AllowTokens:        opts.AllowTokens,
			AllowFunctions:     opts.AllowFunctions,
			AllowAtExpressions: opts.AllowAtExpressions,
			RaiseErrors:        opts.RaiseErrors,
			TreeNodeName:       "tree",
		},
		functions: buildLibrary(opts.Library),
		rng:       newDefaultRng(),
	}
}

// SetPattern parses and postprocesses text, caching the result for
// subsequent Interpolate calls. A tree with parser errors postprocesses to
// an empty body (empty interpolation output), per §4.2; in RaiseErrors
// mode the parse error is returned instead.
func (in *Interpolator) SetPattern(text string) error {
	tree, err := parse.Parse(text, in.parseOpts)
	if err != nil {
		return fmt.Errorf("interpolate: %w", err)
	}
	in.built = ast.Postprocess(tree)
	return nil
}

// Interpolate evaluates the current pattern against tokens (replacing any
// previously bound tokens) and returns the stringified result.
func (in *Interpolator) Interpolate(tokens map[string]data.Value) string {
	if tokens == nil {
		tokens = map[string]data.Value{}
	}
	s := &state{
		tokens:                       tokens,
		functions:                    in.functions,
		built:                        in.built,
		allowTokens:                  in.opts.AllowTokens,
		allowFunctions:               in.opts.AllowFunctions,
		allowMultiMaps:               in.opts.AllowMultiMaps,
		allowCharacterEntities:       in.opts.AllowCharacterEntities,
		requireCustomTokenUnderscore: in.opts.RequireCustomTokenUnderscore,
		rng:                          in.rng,
		translator:                   in.opts.Translator,
		locale:                       in.opts.Locale,
	}
	return s.evalList(s.built).String()
}

// Interpolate is the one-shot convenience form of the entry-point contract
// in §6: interpolate(text, tokens?, options?) -> string.
func Interpolate(text string, tokens map[string]data.Value, opts Options) (string, error) {
	in := New(opts)
	if err := in.SetPattern(text); err != nil {
		return "", err
	}
	return in.Interpolate(tokens), nil
}
