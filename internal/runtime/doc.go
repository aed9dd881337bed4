/*
Package runtime implements the dialogue orchestrator.

One call to Engine.ProcessMessage runs a complete turn under the session's
lock:

 1. the inbound message is redacted for history and logs;
 2. the classifier labels it (failures degrade to general_inquiry at 0.3);
 3. the safety gate screens it and may short-circuit the turn;
 4. a pending high-risk intent is confirmed by an affirmative reply;
 5. entities are extracted (failures skip enrichment) and merged into slots;
 6. the policy selects an action, with the low-confidence tier applied to clarify;
 7. the backend is queried for query_backend decisions (failures apologise);
 8. the response is rendered, redacted and appended to history.

The working copy of the session is committed only after step 8. A cancelled
context or a store error leaves the stored session exactly as it was.
*/
package runtime
