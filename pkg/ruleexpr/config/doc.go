/*
Package config reads rule files.

# Rule Files

A rule file is a YAML or JSON document with top-level check settings and a
"rules" list:

	timeout: 2s
	history: checks.db
	metrics: true
	max_concurrency: 8
	action_retries: 3
	bindings:
	  limit: 90
	rules:
	  - name: disk_full
	    expression: usage > limit
	    message: "disk at ${value}%"
	    on_fail: [page]
	    labels: {team: storage}

LoadRules decodes both parts:

	settings, specs, err := config.LoadRules("rules.yaml")

The format follows the file extension (.yaml, .yml or .json). An empty
file is ErrEmptyDocument and a document whose top level is not a mapping
is ErrNotMapping. Entries missing a name or expression are reported
together, wrapped with ErrRuleField. Entries with disabled: true are
skipped.

# Documents

FromFile, FromYAML and FromJSON return the decoded document as a Config.
Its accessors take a default that is returned when the key is absent or
holds the wrong shape, so optional settings need no checks:

	cfg, err := config.FromYAML(data)
	timeout := cfg.Duration("timeout", 0) // "2s", or 2 meaning seconds
	retries := cfg.Int("action_retries", 0)

Config is safe for concurrent reads as long as the wrapped map is not
modified.
*/
package config
