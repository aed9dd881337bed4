/*
Package ports defines the boundary interfaces of the dialogue engine.

These interfaces decouple the orchestrator from the NLU models, the banking
backend and the session storage, so each can be swapped for a local stand-in,
a remote service or a test double.

# Key Interfaces

  - IntentClassifier: labels a message with an intent and a confidence.
  - EntityExtractor: finds typed spans (entities) in a message.
  - Backend: fulfils an intent once its slots are complete.
  - SessionStore: persists sessions between turns.
  - DistributedLocker: serialises turns of one session across replicas.
  - Dialogue: the engine surface consumed by transports (HTTP, MCP, CLI).
*/
package ports
