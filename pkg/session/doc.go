/*
Package session implements per-client composition state over a shared trie.

A Manager lets stateless hosts (HTTP, MCP) serve many clients: each call replays the
client's saved composition into a fresh engine, applies the key event and persists the
result. Access to one session is serialised by a reference-counted local mutex and,
when several replicas share a store, by a ports.DistributedLocker.
*/
package session
