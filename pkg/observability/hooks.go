// Package observability exposes event hooks for the detection pipeline.
//
// Two hook sets exist: [PipelineHooks] for the load, detect and export
// stages of a run, and [DetectionHooks] for the rounds and collaborator
// calls inside a pool. Both default to no-ops; a metrics or tracing backend
// installs its own implementation once at startup:
//
//	observability.SetDetectionHooks(promHooks{})
//
// Emitters fetch the current set on every event:
//
//	observability.Detection().OnRoundStart(ctx, round, len(current))
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the load -> detect -> export pipeline.
type PipelineHooks interface {
	// Load events
	OnLoadStart(ctx context.Context, path string)
	OnLoadComplete(ctx context.Context, path string, nConss, nVars int, duration time.Duration, err error)

	// Detect events
	OnDetectStart(ctx context.Context, problem string)
	OnDetectComplete(ctx context.Context, problem string, nFinished int, duration time.Duration, err error)

	// Export events
	OnExportStart(ctx context.Context, formats []string)
	OnExportComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// =============================================================================
// Detection Hooks
// =============================================================================

// DetectionHooks receives events from the round loop of a decomposition pool.
type DetectionHooks interface {
	// OnRoundStart records the start of a round over nStates decompositions.
	OnRoundStart(ctx context.Context, round, nStates int)

	// OnRoundComplete records the sizes of the next-round and finished sets.
	OnRoundComplete(ctx context.Context, round, nNext, nFinished int, duration time.Duration)

	// OnDetectorCall records one collaborator invocation and its outcome.
	OnDetectorCall(ctx context.Context, detector, status string, nResults int, duration time.Duration)
}

// =============================================================================
// Defaults
// =============================================================================

// NoopPipelineHooks ignores every event.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadStart(context.Context, string) {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, string, int, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnDetectStart(context.Context, string)                               {}
func (NoopPipelineHooks) OnDetectComplete(context.Context, string, int, time.Duration, error) {}
func (NoopPipelineHooks) OnExportStart(context.Context, []string)                             {}
func (NoopPipelineHooks) OnExportComplete(context.Context, []string, time.Duration, error)    {}

// NoopDetectionHooks ignores every event.
type NoopDetectionHooks struct{}

func (NoopDetectionHooks) OnRoundStart(context.Context, int, int)                        {}
func (NoopDetectionHooks) OnRoundComplete(context.Context, int, int, int, time.Duration) {}
func (NoopDetectionHooks) OnDetectorCall(context.Context, string, string, int, time.Duration) {
}

// =============================================================================
// Registry
// =============================================================================

var (
	pipelineHooks  PipelineHooks  = NoopPipelineHooks{}
	detectionHooks DetectionHooks = NoopDetectionHooks{}
	hooksMu        sync.RWMutex
)

// SetPipelineHooks installs h. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetDetectionHooks installs h. A nil h is ignored.
func SetDetectionHooks(h DetectionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		detectionHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Detection returns the registered detection hooks.
func Detection() DetectionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return detectionHooks
}

// Reset reinstalls the no-op hooks.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	detectionHooks = NoopDetectionHooks{}
}
