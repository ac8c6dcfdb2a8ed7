/*
Package trie implements the immutable prefix tree that maps mnemonic sequences to
candidate symbols.

A trie is built once from a nested mapping payload (JSON, YAML or TOML):

	{
	  "l": {
	    ">>": ["λ", "←"],
	    "a": { "m": { ">>": ["λ"] } }
	  }
	}

The reserved key ">>" holds the node's ordered candidate list; every other key is a
single input symbol leading to a child node. Nodes are never mutated after Parse
returns, so one Trie can back any number of engines across goroutines.
*/
package trie
