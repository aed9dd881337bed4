package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// IntentClassifier predicts the intent of a message.
// Confidence is in [0,1]. Errors are degraded by the orchestrator, never shown to users.
type IntentClassifier interface {
	Predict(ctx context.Context, text string) (intent string, confidence float64, err error)
}

// EntityExtractor recognises typed spans in a message.
type EntityExtractor interface {
	Extract(ctx context.Context, text string) ([]domain.Entity, error)
}

// Backend fulfils an intent with its validated slots and returns a structured result.
type Backend interface {
	Query(ctx context.Context, intent string, slots domain.Slots) (map[string]any, error)
}

// ClassifierFunc adapts a function to IntentClassifier.
type ClassifierFunc func(ctx context.Context, text string) (string, float64, error)

// Predict calls f.
func (f ClassifierFunc) Predict(ctx context.Context, text string) (string, float64, error) {
	return f(ctx, text)
}

// ExtractorFunc adapts a function to EntityExtractor.
type ExtractorFunc func(ctx context.Context, text string) ([]domain.Entity, error)

// Extract calls f.
func (f ExtractorFunc) Extract(ctx context.Context, text string) ([]domain.Entity, error) {
	return f(ctx, text)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, intent string, slots domain.Slots) (map[string]any, error)

// Query calls f.
func (f BackendFunc) Query(ctx context.Context, intent string, slots domain.Slots) (map[string]any, error) {
	return f(ctx, intent, slots)
}
