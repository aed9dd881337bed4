package runtime

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/aretw0/parley/pkg/domain"
)

// Classification is the result of one classifier call.
// When Err is set, Intent and Confidence hold the degraded values.
type Classification struct {
	Intent     string
	Confidence float64
	Err        error
}

// Degraded reports whether the classifier failed and the fallback intent was substituted.
func (c Classification) Degraded() bool { return c.Err != nil }

// Extraction is the result of one extractor call. A failed extraction carries no entities.
type Extraction struct {
	Entities []domain.Entity
	Err      error
}

// BackendResult is the result of one backend call.
type BackendResult struct {
	Data map[string]any
	Err  error
}

// OK reports whether the backend answered.
func (r BackendResult) OK() bool { return r.Err == nil }

func (e *Engine) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}

// classify never fails: errors and out-of-range scores degrade to the general inquiry intent.
func (e *Engine) classify(ctx context.Context, text string) Classification {
	cctx, cancel := e.bounded(ctx)
	defer cancel()

	intent, confidence, err := e.classifier.Predict(cctx, text)
	if err == nil && (math.IsNaN(confidence) || confidence < 0 || confidence > 1) {
		err = fmt.Errorf("confidence %v outside [0,1]", confidence)
	}
	if err == nil && intent == "" {
		err = errors.New("empty intent")
	}
	if err != nil {
		return Classification{Intent: domain.DegradedIntent, Confidence: domain.DegradedConfidence, Err: err}
	}
	return Classification{Intent: intent, Confidence: confidence}
}

func (e *Engine) extract(ctx context.Context, text string) Extraction {
	if e.extractor == nil {
		return Extraction{}
	}
	cctx, cancel := e.bounded(ctx)
	defer cancel()

	entities, err := e.extractor.Extract(cctx, text)
	if err != nil {
		return Extraction{Err: err}
	}
	return Extraction{Entities: entities}
}

func (e *Engine) query(ctx context.Context, intent string, filled domain.Slots) BackendResult {
	cctx, cancel := e.bounded(ctx)
	defer cancel()

	data, err := e.backend.Query(cctx, intent, filled.Clone())
	if err != nil {
		return BackendResult{Err: err}
	}
	return BackendResult{Data: data}
}
