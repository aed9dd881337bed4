/*
Package domain contains the core domain models of the parley dialogue engine.

It defines the session (dialogue context), the closed set of dialogue states, the
tagged action decisions produced by the policy, typed slot values, and the lifecycle
hooks emitted by the orchestrator. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Session: per-conversation state (State, Slots, bounded turn History).
  - State: the dialogue phase; only the values listed in States are valid.
  - Decision: what the policy chose to do next, tagged by ActionKind.
  - SlotValue: a validated slot (plain text, date range or amount).
*/
package domain
