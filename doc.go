/*
Package interpolate implements a small string-interpolation language: a
template string is rewritten into an output string by substituting named
tokens, invoking built-in functions, and building ordered, multi-valued
key-value collections ("at-expressions") inline.

Compared to a general-purpose templating engine this one is deliberately
narrow: there is no control flow, no user-defined functions, and no
compile step that produces a reusable bytecode form. Every pattern is
parsed and walked directly.

Package parse documents the grammar readers, package ast the
postprocessed tree, and package data the MultiMap value; DESIGN.md in
this repository records how the packages fit together.

Pattern examples

Escapes:

	$$ $@ $) $( $: $;   ->   $ @ ) ( : ;

Token substitution:

	$name                     with tokens{name: "world"} -> "world"

Function calls:

	$upper(x)                 -> "X"
	$if(1 (hello world))      -> "hello world"

At-expressions build an ordered multimap and stringify to their first
value when used directly as output:

	@(A;B;C)                  -> "A"
	$index(@(A:1;A:2) A)      -> "1"

Usage example

	in := interpolate.New(interpolate.DefaultOptions())
	if err := in.SetPattern("Hello, $name!"); err != nil {
		log.Fatal(err)
	}
	out := in.Interpolate(map[string]data.Value{
		"name": data.String("world"),
	})

A single Interpolator may be reused across many Interpolate calls with
different token maps once SetPattern has parsed its text. See Bundle for
loading and hot-reloading a directory of pattern files during
development.
*/
package interpolate
