package interpolate

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/soy-lang/interpolate/data"
)

// Func is the uniform built-in signature: every handler receives the
// evaluator plus its already-merged, converted argument values and returns
// a value, or ok=false to contribute nothing (an absent result).
type Func func(s *state, args []data.Value) (data.Value, bool)

type module struct {
	name  string
	funcs map[string]Func
}

var modules = []module{
	{"math", mathFuncs},
	{"boolean", boolFuncs},
	{"string", stringFuncs},
	{"translation", translationFuncs},
	{"map", mapFuncs},
	{"mutators", mutatorFuncs},
}

// LibraryOptions selects which built-ins are callable. Entries name either
// a whole module ("string") or a single function within one ("string.len").
// Include defaults to every module; Exclude is applied after Include.
type LibraryOptions struct {
	Include []string
	Exclude []string
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = true
	}
	return set
}

// buildLibrary produces the lowercase name -> handler table used by Call
// dispatch, per §9's "name→handler table built once at construction".
func buildLibrary(opts LibraryOptions) map[string]Func {
	include := toSet(opts.Include)
	exclude := toSet(opts.Exclude)
	wantQualified := func(mod, qualified string) bool {
		if len(include) > 0 && !include[mod] && !include[qualified] {
			return false
		}
		if exclude[mod] || exclude[qualified] {
			return false
		}
		return true
	}
	handlers := make(map[string]Func)
	for _, m := range modules {
		for name, fn := range m.funcs {
			qualified := strings.ToLower(m.name + "." + name)
			if !wantQualified(m.name, qualified) {
				continue
			}
			handlers[strings.ToLower(name)] = fn
		}
	}
	return handlers
}

// try runs f under a failure guard: any panic (bad type assertions, math
// domain errors surfaced as NaN/Inf are not panics but malformed input
// handling might be) degrades to absent rather than aborting the
// interpolation, per §4.4's fault-guarded builtins.
func try(f Func) Func {
	return func(s *state, args []data.Value) (v data.Value, ok bool) {
		defer func() {
			if recover() != nil {
				v, ok = nil, false
			}
		}()
		return f(s, args)
	}
}

func concatString(args []data.Value) string {
	var sb strings.Builder
	for _, a := range args {
		sb.WriteString(a.String())
	}
	return sb.String()
}

func toNumber(str string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func formatNumber(f float64) data.Value {
	return data.String(strconv.FormatFloat(f, 'f', -1, 64))
}

// unary coerces every argument, concatenated, to a single number.
func unary(f func(float64) float64) Func {
	return try(func(s *state, args []data.Value) (data.Value, bool) {
		n, ok := toNumber(concatString(args))
		if !ok {
			return nil, false
		}
		return formatNumber(f(n)), true
	})
}

// binary coerces the first argument to a number and the concatenation of
// the rest to a second number.
func binary(f func(a, b float64) float64) Func {
	return try(func(s *state, args []data.Value) (data.Value, bool) {
		if len(args) == 0 {
			return nil, false
		}
		a, ok := toNumber(args[0].String())
		if !ok {
			return nil, false
		}
		b, ok := toNumber(concatString(args[1:]))
		if !ok {
			return nil, false
		}
		return formatNumber(f(a, b)), true
	})
}

// unaryList is unary but for helpers that produce a pair of results,
// wrapped into a fresh 1-indexed MultiMap via the same re-keying list()
// uses.
func unaryList(f func(float64) (float64, float64)) Func {
	return try(func(s *state, args []data.Value) (data.Value, bool) {
		n, ok := toNumber(concatString(args))
		if !ok {
			return nil, false
		}
		a, b := f(n)
		return mapListValues([]data.Value{formatNumber(a), formatNumber(b)}), true
	})
}

// variadicNumber folds every argument (each coerced to a number) with f,
// starting from seed.
func variadicNumber(seed float64, f func(acc, x float64) float64) Func {
	return try(func(s *state, args []data.Value) (data.Value, bool) {
		acc := seed
		for _, a := range args {
			n, ok := toNumber(a.String())
			if !ok {
				return nil, false
			}
			acc = f(acc, n)
		}
		return formatNumber(acc), true
	})
}

// comparator coerces both arguments and compares numerically if both parse
// as numbers, else lexically.
func comparator(f func(cmp int) bool) Func {
	return try(func(s *state, args []data.Value) (data.Value, bool) {
		if len(args) < 2 {
			return nil, false
		}
		as, bs := args[0].String(), args[1].String()
		if an, aok := toNumber(as); aok {
			if bn, bok := toNumber(bs); bok {
				return boolValue(f(cmpFloat(an, bn))), true
			}
		}
		return boolValue(f(strings.Compare(as, bs))), true
	})
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func boolValue(b bool) data.Value {
	if b {
		return data.String("1")
	}
	return data.String("")
}

func truthy(v data.Value) bool {
	if v == nil {
		return false
	}
	return v.Truthy()
}

// firstToString coerces the first argument to a string before calling f
// with it and the remaining raw arguments.
func firstToString(f func(s *state, first string, rest []data.Value) (data.Value, bool)) Func {
	return try(func(s *state, args []data.Value) (data.Value, bool) {
		if len(args) == 0 {
			return nil, false
		}
		return f(s, args[0].String(), args[1:])
	})
}

// concatenateArgs stringifies and joins every argument before calling f.
func concatenateArgs(f func(concatenated string) (data.Value, bool)) Func {
	return try(func(s *state, args []data.Value) (data.Value, bool) {
		return f(concatString(args))
	})
}

// ---------------------------------------------------------------- math

var mathFuncs = map[string]Func{
	"pi":       func(s *state, args []data.Value) (data.Value, bool) { return formatNumber(math.Pi), true },
	"isnan":    unary(func(x float64) float64 { return boolToFloat(math.IsNaN(x)) }),
	"abs":      unary(math.Abs),
	"acos":     unary(math.Acos),
	"asin":     unary(math.Asin),
	"atan":     unary(math.Atan),
	"atan2":    binary(math.Atan2),
	"ceil":     unary(math.Ceil),
	"cos":      unary(math.Cos),
	"cosh":     unary(math.Cosh),
	"deg":      unary(func(x float64) float64 { return x * 180 / math.Pi }),
	"div":      binary(func(a, b float64) float64 { return a / b }),
	"exp":      unary(math.Exp),
	"floor":    unary(math.Floor),
	"fmod":     binary(math.Mod),
	"frexp":    unaryList(func(x float64) (float64, float64) { f, e := math.Frexp(x); return f, float64(e) }),
	"int":      unary(math.Trunc),
	"ldexp":    binary(func(frac, exp float64) float64 { return math.Ldexp(frac, int(exp)) }),
	"log":      unary(math.Log),
	"log10":    unary(math.Log10),
	"max":      variadicOrString(math.Max, maxString),
	"min":      variadicOrString(math.Min, minString),
	"mod":      binary(math.Mod),
	"modf":     unaryList(math.Modf),
	"mul":      variadicNumber(1, func(acc, x float64) float64 { return acc * x }),
	"num":      unary(func(x float64) float64 { return x }),
	"pow":      binary(math.Pow),
	"rad":      unary(func(x float64) float64 { return x * math.Pi / 180 }),
	"sin":      unary(math.Sin),
	"sinh":     unary(math.Sinh),
	"sqrt":     unary(math.Sqrt),
	"subtract": binary(func(a, b float64) float64 { return a - b }),
	"tan":      unary(math.Tan),
	"tanh":     unary(math.Tanh),
	"add":      variadicNumber(0, func(acc, x float64) float64 { return acc + x }),
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func maxString(a, b string) string {
	if a > b {
		return a
	}
	return b
}

func minString(a, b string) string {
	if a < b {
		return a
	}
	return b
}

// variadicOrString implements max/min: numeric comparison when every
// argument parses as a number, string comparison otherwise.
func variadicOrString(numOp func(a, b float64) float64, strOp func(a, b string) string) Func {
	return try(func(s *state, args []data.Value) (data.Value, bool) {
		if len(args) == 0 {
			return nil, false
		}
		allNumeric := true
		nums := make([]float64, len(args))
		for i, a := range args {
			n, ok := toNumber(a.String())
			if !ok {
				allNumeric = false
				break
			}
			nums[i] = n
		}
		if allNumeric {
			acc := nums[0]
			for _, n := range nums[1:] {
				acc = numOp(acc, n)
			}
			return formatNumber(acc), true
		}
		acc := args[0].String()
		for _, a := range args[1:] {
			acc = strOp(acc, a.String())
		}
		return data.String(acc), true
	})
}

// ---------------------------------------------------------------- boolean

var boolFuncs = map[string]Func{
	"not": try(func(s *state, args []data.Value) (data.Value, bool) {
		if len(args) == 0 {
			return nil, false
		}
		return boolValue(!truthy(args[0])), true
	}),
	"eq":  comparator(func(c int) bool { return c == 0 }),
	"neq": comparator(func(c int) bool { return c != 0 }),
	"gt":  comparator(func(c int) bool { return c > 0 }),
	"lt":  comparator(func(c int) bool { return c < 0 }),
	"gte": comparator(func(c int) bool { return c >= 0 }),
	"lte": comparator(func(c int) bool { return c <= 0 }),
	"any": try(func(s *state, args []data.Value) (data.Value, bool) {
		for _, a := range args {
			if truthy(a) {
				return a, true
			}
		}
		return nil, false
	}),
	"all": try(func(s *state, args []data.Value) (data.Value, bool) {
		if len(args) == 0 {
			return nil, false
		}
		for _, a := range args {
			if !truthy(a) {
				return nil, false
			}
		}
		return args[len(args)-1], true
	}),
	"if":     try(funcIf),
	"unless": try(funcUnless),
	"ifelse": try(funcIf),
}

func funcIf(s *state, args []data.Value) (data.Value, bool) {
	if len(args) < 2 {
		return nil, false
	}
	if truthy(args[0]) {
		return args[1], true
	}
	if len(args) >= 3 {
		return args[2], true
	}
	return nil, false
}

func funcUnless(s *state, args []data.Value) (data.Value, bool) {
	if len(args) < 2 {
		return nil, false
	}
	if !truthy(args[0]) {
		return args[1], true
	}
	if len(args) >= 3 {
		return args[2], true
	}
	return nil, false
}

// ---------------------------------------------------------------- string

var stringFuncs = map[string]Func{
	"str": concatenateArgs(func(c string) (data.Value, bool) { return data.String(c), true }),
	"lower": firstToString(func(s *state, first string, rest []data.Value) (data.Value, bool) {
		return data.String(strings.ToLower(first)), true
	}),
	"upper": firstToString(func(s *state, first string, rest []data.Value) (data.Value, bool) {
		return data.String(strings.ToUpper(first)), true
	}),
	"reverse": firstToString(func(s *state, first string, rest []data.Value) (data.Value, bool) {
		runes := []rune(first)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return data.String(string(runes)), true
	}),
	"trim": firstToString(func(s *state, first string, rest []data.Value) (data.Value, bool) {
		return data.String(strings.TrimSpace(first)), true
	}),
	"trimleft": firstToString(func(s *state, first string, rest []data.Value) (data.Value, bool) {
		return data.String(strings.TrimLeft(first, " \t\n\r")), true
	}),
	"trimright": firstToString(func(s *state, first string, rest []data.Value) (data.Value, bool) {
		return data.String(strings.TrimRight(first, " \t\n\r")), true
	}),
	"first": firstToString(func(s *state, first string, rest []data.Value) (data.Value, bool) {
		r := []rune(first)
		if len(r) == 0 {
			return nil, false
		}
		return data.String(string(r[0])), true
	}),
	"last": firstToString(func(s *state, first string, rest []data.Value) (data.Value, bool) {
		r := []rune(first)
		if len(r) == 0 {
			return nil, false
		}
		return data.String(string(r[len(r)-1])), true
	}),
	"contains": firstToString(func(s *state, first string, rest []data.Value) (data.Value, bool) {
		if len(rest) == 0 {
			return nil, false
		}
		return boolValue(strings.Contains(first, rest[0].String())), true
	}),
	"startswith": firstToString(func(s *state, first string, rest []data.Value) (data.Value, bool) {
		if len(rest) == 0 {
			return nil, false
		}
		return boolValue(strings.HasPrefix(first, rest[0].String())), true
	}),
	"endswith": firstToString(func(s *state, first string, rest []data.Value) (data.Value, bool) {
		if len(rest) == 0 {
			return nil, false
		}
		return boolValue(strings.HasSuffix(first, rest[0].String())), true
	}),
	"concat": try(func(s *state, args []data.Value) (data.Value, bool) {
		return data.String(concatString(args)), true
	}),
	"concats": try(func(s *state, args []data.Value) (data.Value, bool) {
		if len(args) == 0 {
			return nil, false
		}
		sep := args[0].String()
		parts := make([]string, len(args)-1)
		for i, a := range args[1:] {
			parts[i] = a.String()
		}
		return data.String(strings.Join(parts, sep)), true
	}),
	"len": firstToString(func(s *state, first string, rest []data.Value) (data.Value, bool) {
		return formatNumber(float64(len([]rune(first)))), true
	}),
	"capitalize": firstToString(func(s *state, first string, rest []data.Value) (data.Value, bool) {
		r := []rune(first)
		if len(r) == 0 {
			return data.String(""), true
		}
		return data.String(strings.ToUpper(string(r[0])) + string(r[1:])), true
	}),
	"punctuate": firstToString(funcPunctuate),
	"gsub":      firstToString(funcGsub),
	"sub":       firstToString(funcSub),
	"index":     firstToString(funcStringIndex),
	"match":     firstToString(funcMatch),
	"char": try(func(s *state, args []data.Value) (data.Value, bool) {
		if len(args) == 0 {
			return nil, false
		}
		n, ok := toNumber(args[0].String())
		if !ok {
			return nil, false
		}
		return data.String(string(rune(int(n)))), true
	}),
	"byte": try(func(s *state, args []data.Value) (data.Value, bool) {
		if len(args) == 0 {
			return nil, false
		}
		n, ok := toNumber(args[0].String())
		if !ok {
			return nil, false
		}
		return data.String(string([]byte{byte(int(n))})), true
	}),
	"rep": firstToString(func(s *state, first string, rest []data.Value) (data.Value, bool) {
		if len(rest) == 0 {
			return nil, false
		}
		n, ok := toNumber(rest[0].String())
		if !ok || n < 0 {
			return nil, false
		}
		return data.String(strings.Repeat(first, int(n))), true
	}),
}

const defaultPunctuation = ".,!?;:"

func funcPunctuate(s *state, first string, rest []data.Value) (data.Value, bool) {
	allowed := defaultPunctuation
	if len(rest) > 0 {
		allowed = rest[0].String()
	}
	if first == "" {
		return data.String(first), true
	}
	last := first[len(first)-1:]
	if strings.Contains(allowed, last) {
		return data.String(first), true
	}
	return data.String(first + "."), true
}

// funcGsub's replacement syntax is whatever Go's regexp package (RE2)
// accepts in ReplaceAllString: $1/$name group references, no
// backreferences or lookaround, unlike PCRE-flavored engines.
func funcGsub(s *state, first string, rest []data.Value) (data.Value, bool) {
	if len(rest) < 2 {
		return nil, false
	}
	re, err := regexp.Compile(rest[0].String())
	if err != nil {
		return nil, false
	}
	return data.String(re.ReplaceAllString(first, rest[1].String())), true
}

func funcMatch(s *state, first string, rest []data.Value) (data.Value, bool) {
	if len(rest) == 0 {
		return nil, false
	}
	re, err := regexp.Compile(rest[0].String())
	if err != nil {
		return nil, false
	}
	return boolValue(re.MatchString(first)), true
}

// funcSub emulates traditional 1-based substring semantics with negative
// indices wrapping from the end: sub(s, start, length?).
func funcSub(s *state, first string, rest []data.Value) (data.Value, bool) {
	if len(rest) == 0 {
		return nil, false
	}
	runes := []rune(first)
	n := len(runes)
	start, ok := toNumber(rest[0].String())
	if !ok {
		return nil, false
	}
	i := resolveIndex(int(start), n)
	if i < 0 || i >= n {
		return data.String(""), true
	}
	end := n
	if len(rest) > 1 {
		length, ok := toNumber(rest[1].String())
		if !ok {
			return nil, false
		}
		end = i + int(length)
	}
	if end > n {
		end = n
	}
	if end < i {
		return data.String(""), true
	}
	return data.String(string(runes[i:end])), true
}

func funcStringIndex(s *state, first string, rest []data.Value) (data.Value, bool) {
	if len(rest) == 0 {
		return nil, false
	}
	idx := strings.Index(first, rest[0].String())
	if idx < 0 {
		return nil, false
	}
	return formatNumber(float64(len([]rune(first[:idx])) + 1)), true
}

// resolveIndex converts a 1-based index, possibly negative (counting from
// the end), to a 0-based offset.
func resolveIndex(i, n int) int {
	if i > 0 {
		return i - 1
	}
	if i < 0 {
		return n + i
	}
	return 0
}

// ---------------------------------------------------------------- translation

var translationFuncs = map[string]Func{
	"gettext": try(func(s *state, args []data.Value) (data.Value, bool) {
		if len(args) == 0 {
			return nil, false
		}
		msgid := args[0].String()
		if str, ok := s.translator.Translate(s.locale, msgid); ok {
			return data.String(str), true
		}
		return data.String(msgid), true
	}),
	"gettextornull": try(func(s *state, args []data.Value) (data.Value, bool) {
		if len(args) == 0 {
			return nil, false
		}
		str, ok := s.translator.Translate(s.locale, args[0].String())
		if !ok {
			return nil, false
		}
		return data.String(str), true
	}),
}

// ---------------------------------------------------------------- map

var mapFuncs = map[string]Func{
	"list": try(func(s *state, args []data.Value) (data.Value, bool) {
		return mapList(args), true
	}),
	"map": try(func(s *state, args []data.Value) (data.Value, bool) {
		if len(args) < 2 {
			return nil, false
		}
		fn, ok := s.functions[strings.ToLower(args[0].String())]
		mm, mmOk := args[1].(*data.MultiMap)
		if !ok || !mmOk {
			return nil, false
		}
		extras := args[2:]
		var entries data.Entries
		for _, e := range mm.Pairs() {
			callArgs := append([]data.Value{e.Value}, extras...)
			v, ok := fn(s, callArgs)
			if !ok {
				continue
			}
			entries = append(entries, data.Entry{Key: e.Key, Value: v})
		}
		return data.New(entries), true
	}),
	"len": try(func(s *state, args []data.Value) (data.Value, bool) {
		if len(args) == 0 {
			return nil, false
		}
		if mm, ok := args[0].(*data.MultiMap); ok {
			return formatNumber(float64(mm.Size())), true
		}
		return stringFuncs["len"](s, args)
	}),
	"concat": try(func(s *state, args []data.Value) (data.Value, bool) {
		if len(args) > 0 {
			if mm, ok := args[0].(*data.MultiMap); ok {
				return data.String(mm.Concat("", 1, mm.Size()+1)), true
			}
		}
		return stringFuncs["concat"](s, args)
	}),
	"concats": try(func(s *state, args []data.Value) (data.Value, bool) {
		if len(args) > 1 {
			if mm, ok := args[1].(*data.MultiMap); ok {
				return data.String(mm.Concat(args[0].String(), 1, mm.Size()+1)), true
			}
		}
		return stringFuncs["concats"](s, args)
	}),
	"nthvalue": try(func(s *state, args []data.Value) (data.Value, bool) {
		if len(args) < 2 {
			return nil, false
		}
		mm, ok := args[0].(*data.MultiMap)
		if !ok {
			return nil, false
		}
		n, ok := toNumber(args[1].String())
		if !ok {
			return nil, false
		}
		e, ok := mm.Entry(int(n))
		if !ok {
			return nil, false
		}
		return e.Value, true
	}),
	"first": try(func(s *state, args []data.Value) (data.Value, bool) {
		if len(args) == 0 {
			return nil, false
		}
		if mm, ok := args[0].(*data.MultiMap); ok {
			return mm.First()
		}
		return stringFuncs["first"](s, args)
	}),
	"last": try(func(s *state, args []data.Value) (data.Value, bool) {
		if len(args) == 0 {
			return nil, false
		}
		if mm, ok := args[0].(*data.MultiMap); ok {
			return mm.Last()
		}
		return stringFuncs["last"](s, args)
	}),
	"has": try(func(s *state, args []data.Value) (data.Value, bool) {
		if len(args) < 2 {
			return nil, false
		}
		mm, ok := args[0].(*data.MultiMap)
		if !ok {
			return nil, false
		}
		return boolValue(mm.Has(args[1].String())), true
	}),
	"get": try(func(s *state, args []data.Value) (data.Value, bool) {
		if len(args) < 2 {
			return nil, false
		}
		mm, ok := args[0].(*data.MultiMap)
		if !ok {
			return nil, false
		}
		var def data.Value = data.String("")
		if len(args) > 2 {
			def = args[2]
		}
		return mm.Get(args[1].String(), def), true
	}),
	"index": try(func(s *state, args []data.Value) (data.Value, bool) {
		if len(args) < 2 {
			return nil, false
		}
		mm, ok := args[0].(*data.MultiMap)
		if !ok {
			return stringFuncs["index"](s, args)
		}
		var def data.Value
		if len(args) > 2 {
			def = args[2]
		}
		return mm.Index(args[1].String(), def), true
	}),
	"unique": try(func(s *state, args []data.Value) (data.Value, bool) {
		if len(args) == 0 {
			return nil, false
		}
		mm, ok := args[0].(*data.MultiMap)
		if !ok {
			return nil, false
		}
		return mm.Unique(), true
	}),
}

// mapList implements list(): a single MultiMap argument is re-keyed 1..n
// over its values; any other argument pattern wraps the positional args.
func mapList(args []data.Value) data.Value {
	values := args
	if len(args) == 1 {
		if mm, ok := args[0].(*data.MultiMap); ok {
			values = mm.Values()
		}
	}
	return mapListValues(values)
}

func mapListValues(values []data.Value) data.Value {
	var entries data.Entries
	for i, v := range values {
		entries = append(entries, data.Entry{Key: data.String(strconv.Itoa(i + 1)), Value: v})
	}
	return data.New(entries)
}

// ---------------------------------------------------------------- mutators

var mutatorFuncs = map[string]Func{
	"randomseed": try(func(s *state, args []data.Value) (data.Value, bool) {
		if len(args) == 0 {
			return nil, false
		}
		n, ok := toNumber(args[0].String())
		if !ok {
			return nil, false
		}
		s.rng.Seed(int64(n))
		return nil, false
	}),
	"random": try(func(s *state, args []data.Value) (data.Value, bool) {
		if len(args) == 0 {
			return formatNumber(s.rng.Gen()), true
		}
		n, ok := toNumber(args[0].String())
		if !ok {
			return nil, false
		}
		return formatNumber(float64(s.rng.GenRange(0, int64(n)))), true
	}),
	"choose": try(func(s *state, args []data.Value) (data.Value, bool) {
		var values []data.Value
		if len(args) == 1 {
			if mm, ok := args[0].(*data.MultiMap); ok {
				values = mm.Values()
			}
		}
		if values == nil {
			values = args
		}
		if len(values) == 0 {
			return nil, false
		}
		return values[s.rng.Pick(len(values))], true
	}),
	"set": try(func(s *state, args []data.Value) (data.Value, bool) {
		if len(args) == 0 {
			return nil, false
		}
		name := args[0].String()
		value := data.String(concatString(args[1:]))
		s.setTokenValidated(name, value)
		return nil, false
	}),
}
