/*
Package unicorn is a mnemonic symbol composition engine: an input-method core that turns
short typed sequences into Unicode symbols.

A composition starts with a trigger key (a backslash by default). The following keys walk a
prefix tree built from a configuration table; each key event yields the actions the host
must apply to its text field.

# Actions

  - Reject: the engine did not consume the key; the host handles it normally.
  - UpdateComposition(text): show text as the in-progress composition.
  - ShowCandidates(text): as above, and the current position offers candidates to pick from.
  - Commit(text): insert text and end (or restart) the composition.

# Configuration

Tables are nested mappings in JSON, YAML or TOML. Each key is one input symbol; the reserved
key ">>" lists the candidates produced at that position.

	{
	  "b": {">>": ["β"], "e": {"t": {"a": {">>": ["β"]}}}},
	  "l": {">>": ["λ"]}
	}

# Usage

	eng, err := unicorn.New(payload)
	if err != nil {
		log.Fatal(err)
	}
	for _, r := range `\beta` {
		for _, action := range eng.ProcessRune(r) {
			fmt.Println(action)
		}
	}

An Engine serialises its own operations. For many concurrent clients over one table, see
pkg/session, which persists each client's composition through a ports.SessionStore.
*/
package unicorn
