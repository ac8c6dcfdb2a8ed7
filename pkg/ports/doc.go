/*
Package ports defines the driven ports (interfaces) of the unicorn engine.

These interfaces decouple the composition core from external implementations, so the
same engine can run embedded in an editor, behind an HTTP API or as an MCP server.

# Key Interfaces

  - TrieLoader: loads the mnemonic trie (file, memory).
  - Watchable: signals configuration changes for hot reload.
  - SessionStore: persists per-client compositions (memory, file, Redis).
  - DistributedLocker: serialises access to one session across instances.
*/
package ports
