/*
Package placeholder merges record data into HTML document templates.

# Overview

placeholder replaces {{ name }} and {{ name|safe}} markers in template text
with values from a Record. It is a pure text transform: no I/O, no shared
mutable state, identical inputs always give identical output. Loading
templates and rendering the result belong to the caller.

# Basic Usage

	html := placeholder.Substitute(
	    "<p>Dear {{ naam_voornaam_werknemer }},</p>",
	    placeholder.Record{"naam_voornaam_werknemer": "Jo Peeters"},
	)
	// html: "<p>Dear Jo Peeters,</p>"

# Marker Syntax

A marker is an opening double brace, a name made of any characters except
'}' and '|', an optional literal "|safe" suffix, and a closing double brace.
Whitespace around the name is ignored, but "|safe" must be followed directly
by the closing braces, so "{{ name|safe }}" is not a marker. Markers do not
nest and cannot be escaped. Text that does not match the grammar, such as
"{{name", "{{name|upper}}" or "{{ name|safe }}", is copied through unchanged.

# Missing Fields

A marker whose name is absent from the record, or whose value is nil,
becomes the empty string. A partially filled record still yields a
renderable document:

	placeholder.Substitute("Hi {{name}}!", placeholder.Record{})
	// "Hi !"

A nil Record means "no data" and returns the template unchanged.

# Escaping

Values are HTML-escaped by default. Exactly five characters are replaced,
in one pass:

	&  ->  &amp;
	<  ->  &lt;
	>  ->  &gt;
	"  ->  &quot;
	'  ->  &#039;

A value is inserted verbatim when the marker carries "|safe", when the name
contains "_image_tag" or "_options", or when the name is registered as a
trusted field on the Engine:

	eng := placeholder.NewEngine(placeholder.WithTrustedFields("signature_block"))
	eng.Substitute("{{signature_block}}", rec)

# Analysis

ExtractPlaceholders lists the distinct names a template references, in
first-occurrence order. ValidateRecord reports which of them a record lacks:

	fields := placeholder.ExtractPlaceholders(tmpl)
	res := placeholder.ValidateRecord(rec, fields)
	if !res.IsValid {
	    log.Printf("missing: %v", res.MissingFields)
	}

# Thread Safety

Engine is safe for concurrent use after construction. Package-level
functions use a shared default engine.
*/
package placeholder
