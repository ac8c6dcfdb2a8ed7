/*
Package dsl provides a fluent Go builder for mnemonic tables.

It is an alternative to JSON, YAML or TOML files when the table is generated
in code or written inside tests.

Example usage:

	b := dsl.New()
	b.Add("alpha").Candidates("α")
	b.Add("l").Candidates("λ", "←")
	b.Add("ar").Candidates("→", "⇒")

	t, err := b.Trie()
	// ... pass t to unicorn.NewFromTrie(t)
*/
package dsl
