// Package trace records the progress of a tycodec run as a stream of spans.
//
// A run opens a driver span, one span per compilation unit, and nested
// pass spans (resolve, tags, subtype, coding, descriptor, emit). Per-type
// spans are emitted only at LevelDebug.
//
//	tycodec gen --trace=- --trace-level=phase schema.toml
//
// Tracers travel through the pipeline inside a context:
//
//	ctx = trace.WithTracer(ctx, tr)
//	sp := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "sema.tags", parent)
//	defer sp.End("")
//
// Implementations:
//
//   - Nop discards everything
//   - StreamTracer writes each event immediately
//   - RingTracer keeps the last N events for post-mortem dumps
//   - MultiTracer fans out to several tracers
package trace
