// Package data holds the two value types the interpolation engine's
// evaluator produces and consumes: plain strings, and MultiMap, an
// immutable ordered multi-valued association list built by at-expressions.
package data

import (
	"strconv"
	"strings"
)

// Value is either a String or a MultiMap. It is the result type of every
// node evaluation and of every built-in function call.
type Value interface {
	// Truthy reports whether this value's string projection is non-empty.
	Truthy() bool

	// String returns this value's string projection: for String, the
	// bytes themselves; for MultiMap, the value of its first entry (or
	// the empty string if it has none).
	String() string

	// Equal reports whether other represents the same value. Strings
	// compare by content; MultiMaps compare by identity, matching the
	// teacher's Equals semantics for reference types.
	Equal(other Value) bool
}

// String is an immutable host string, treated as a sequence of bytes.
type String string

func (s String) Truthy() bool { return s != "" }
func (s String) String() string { return string(s) }

func (s String) Equal(other Value) bool {
	o, ok := other.(String)
	return ok && o == s
}

// Entry is one (key, value) pair of a MultiMap, in insertion order.
type Entry struct {
	Key   Value
	Value Value
}

// Source is anything New can build a MultiMap from: a literal entry list,
// or another MultiMap whose entries are appended in order.
type Source interface {
	sourceEntries() []Entry
}

// Entries is a literal, ordered list of key/value pairs.
type Entries []Entry

func (e Entries) sourceEntries() []Entry { return []Entry(e) }

type rankedValue struct {
	rank  int
	value Value
}

// MultiMap is an ordered, immutable sequence of entries plus a derived
// index from the string projection of each key to the list of values
// recorded under that key, in original insertion order. No operation ever
// mutates an existing MultiMap; every "modifying" operation returns a new
// one.
type MultiMap struct {
	entries []Entry
	index   map[string][]rankedValue
}

// Empty is the MultiMap with no entries.
var Empty = MultiMap{}

func (m *MultiMap) sourceEntries() []Entry {
	if m == nil {
		return nil
	}
	return m.entries
}

// New builds a MultiMap by appending the entries of each source in order.
// A source is either Entries or another *MultiMap.
func New(sources ...Source) *MultiMap {
	var total int
	for _, src := range sources {
		total += len(src.sourceEntries())
	}
	m := &MultiMap{
		entries: make([]Entry, 0, total),
		index:   make(map[string][]rankedValue, total),
	}
	for _, src := range sources {
		for _, e := range src.sourceEntries() {
			m.append(e)
		}
	}
	return m
}

func (m *MultiMap) append(e Entry) {
	rank := len(m.index[e.Key.String()])
	m.index[e.Key.String()] = append(m.index[e.Key.String()], rankedValue{rank, e.Value})
	m.entries = append(m.entries, e)
}

// Truthy reports whether the string projection is non-empty: an empty
// MultiMap, or one whose first value is empty, is not truthy.
func (m *MultiMap) Truthy() bool { return m.String() != "" }

// String returns the string projection: First()'s value, or "" if empty.
func (m *MultiMap) String() string {
	if v, ok := m.First(); ok {
		return v.String()
	}
	return ""
}

// Equal compares by identity: two MultiMaps are equal only if they are the
// same instance.
func (m *MultiMap) Equal(other Value) bool {
	o, ok := other.(*MultiMap)
	return ok && o == m
}

// Size returns the number of entries.
func (m *MultiMap) Size() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Pairs returns all entries in insertion order. The returned slice must
// not be mutated by callers.
func (m *MultiMap) Pairs() []Entry {
	if m == nil {
		return nil
	}
	return m.entries
}

// Keys returns the key of every entry, in insertion order (with
// duplicates, one per entry).
func (m *MultiMap) Keys() []Value {
	pairs := m.Pairs()
	keys := make([]Value, len(pairs))
	for i, e := range pairs {
		keys[i] = e.Key
	}
	return keys
}

// Values returns the value of every entry, in insertion order (with
// duplicates, one per entry).
func (m *MultiMap) Values() []Value {
	pairs := m.Pairs()
	values := make([]Value, len(pairs))
	for i, e := range pairs {
		values[i] = e.Value
	}
	return values
}

// First returns the value of the first entry, or ok=false if empty.
func (m *MultiMap) First() (Value, bool) {
	pairs := m.Pairs()
	if len(pairs) == 0 {
		return nil, false
	}
	return pairs[0].Value, true
}

// Last returns the value of the last entry, or ok=false if empty.
func (m *MultiMap) Last() (Value, bool) {
	pairs := m.Pairs()
	if len(pairs) == 0 {
		return nil, false
	}
	return pairs[len(pairs)-1].Value, true
}

// Entry returns a shallow copy of the nth entry, 1-indexed. ok is false if
// n is out of range.
func (m *MultiMap) Entry(n int) (Entry, bool) {
	pairs := m.Pairs()
	if n < 1 || n > len(pairs) {
		return Entry{}, false
	}
	return pairs[n-1], true
}

// Has reports whether any entry's key has string projection k.
func (m *MultiMap) Has(k string) bool {
	if m == nil {
		return false
	}
	_, ok := m.index[k]
	return ok
}

// Get returns the value of the first entry whose key has string
// projection k, or def if no such entry exists.
func (m *MultiMap) Get(k string, def Value) Value {
	if m == nil {
		return def
	}
	ranked, ok := m.index[k]
	if !ok || len(ranked) == 0 {
		return def
	}
	return ranked[0].value
}

// Index returns a new MultiMap containing, in original order, every entry
// whose key has string projection k, with keys renumbered 1..n. If k is
// absent, def (if non-nil) becomes the sole entry's value
// under key "1"; a nil def yields an empty MultiMap.
func (m *MultiMap) Index(k string, def Value) *MultiMap {
	if m == nil || !m.Has(k) {
		if def == nil {
			return New()
		}
		return New(Entries{{Key: String("1"), Value: def}})
	}
	ranked := m.index[k]
	entries := make(Entries, len(ranked))
	for i, r := range ranked {
		entries[i] = Entry{Key: String(strconv.Itoa(i + 1)), Value: r.value}
	}
	return New(entries)
}

// Unique returns a new MultiMap retaining only the first entry for each
// distinct value (by Equal), in original order, with keys renumbered 1..n.
func (m *MultiMap) Unique() *MultiMap {
	var seen []Value
	var entries Entries
	for _, v := range m.Values() {
		if containsValue(seen, v) {
			continue
		}
		seen = append(seen, v)
		entries = append(entries, Entry{Key: String(strconv.Itoa(len(entries) + 1)), Value: v})
	}
	return New(entries)
}

func containsValue(vs []Value, v Value) bool {
	for _, existing := range vs {
		if existing.Equal(v) {
			return true
		}
	}
	return false
}

// Concat joins the stringified values of entries [i, j) (1-indexed,
// j exclusive) with sep between them. i defaults to 1 when it is zero or
// negative; j defaults to Size()+1 when it is zero, negative, or past
// Size()+1.
func (m *MultiMap) Concat(sep string, i, j int) string {
	values := m.Values()
	if i <= 0 {
		i = 1
	}
	if j <= 0 || j > len(values)+1 {
		j = len(values) + 1
	}
	if i > len(values) || i >= j {
		return ""
	}
	parts := make([]string, 0, j-i)
	for _, v := range values[i-1 : j-1] {
		parts = append(parts, v.String())
	}
	return strings.Join(parts, sep)
}

