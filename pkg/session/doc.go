/*
Package session implements session lifecycle and concurrency control.

The Manager serialises turns per session ID with a reference-counted lock map,
optionally backed by a distributed lock for multi-replica deployments, and
commits each turn as a single read-modify-write against the session store.
*/
package session
