/*
Package domain contains the core domain models for the unicorn composition engine.

It defines the values exchanged between the engine and its host: the actions a key
event produces, the serialisable composition snapshot, sessions, lifecycle events and
the error kinds. This package is kept pure and free of I/O, following Hexagonal
Architecture principles.

# Key Entities

  - Action: what the host must do (Reject, UpdateComposition, Commit, ShowCandidates).
  - Composition: active flag, buffer and selected candidate of an engine.
  - Session: a Composition persisted on behalf of one host client.
  - ConfigError / InitError: construction-time failures. Unmapped or invalid keys
    are never errors; they surface as Reject.
*/
package domain
