/*
Package parley is a dialogue orchestration engine for domain assistants.

It tracks multi-turn sessions, decides the next action from an intent label
and confidence score, fills and validates slots from recognised entities,
gates risky or uncertain turns into clarification, verification or
escalation, renders templated responses, and scrubs PII from everything it
stores or returns.

# Concept

The intent classifier, the entity extractor and the backend are external
collaborators supplied by the host. Parley owns the session and the policy.
Collaborator failures degrade the turn instead of failing it, and a turn's
effects are committed atomically under a per-session lock.

# Usage

	eng, err := parley.New(
		parley.WithClassifier(myClassifier),
		parley.WithExtractor(myExtractor),
		parley.WithBackend(myBackend),
	)
	if err != nil {
		log.Fatal(err)
	}

	res, err := eng.ProcessMessage(ctx, "session-123", "What is my balance?")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Response) // I need your account type. Can you provide it?

# Adapters

  - pkg/adapters/memory and pkg/adapters/redis: session stores.
  - pkg/adapters/http and pkg/adapters/mcp: transports.
  - pkg/adapters/loam: response templates from Markdown files.
  - pkg/adapters/process: backends implemented as local commands.
  - pkg/adapters/offline: keyword classifier, pattern extractor and a mock bank.
*/
package parley
