// Package offline provides stand-in collaborators for running the engine
// without models or a real bank: a keyword intent classifier, a pattern
// entity extractor and a mock banking backend.
package offline
