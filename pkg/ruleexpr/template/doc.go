/*
Package template expands variables in rule messages and labels.

# Overview

A rule's message is written against the same bindings its expression is
evaluated with, plus the evaluation result:

	msg := template.Expand("${host}: disk at ${usage}%", map[string]any{
	    "host":  "db1",
	    "usage": 93,
	})
	// msg: "db1: disk at 93%"

# Variable Patterns

Two patterns are supported:

  - ${var} - Brace style, recommended for clarity
  - $var - Dollar style, simpler but requires word boundaries

The dollar style uses word boundary detection to avoid partial matches.
For example, $port won't match inside $portNumber.

# Missing Variables

By default, missing variables are kept as-is so a half-filled message is
still readable:

	msg := template.Expand("${host} unreachable", nil)
	// msg: "${host} unreachable"

Configure behavior with options:

	exp := template.NewExpander(template.WithMissingAction(template.MissingEmpty))
	exp = template.NewExpander(template.WithMissingAction(template.MissingError))

# Labels

ExpandLabels expands every value of a label map and leaves keys alone:

	labels, err := exp.ExpandLabels(map[string]string{"host": "${host}"}, vars)

# Thread Safety

Expander is safe for concurrent use after construction.
Package-level functions use a shared default expander.
*/
package template
