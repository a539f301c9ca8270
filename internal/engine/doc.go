// Package engine drives transformation sequences over modules.
//
// ARCHITECTURE:
//
// Single-Threaded Sequences:
// A sequence is applied step by step on one goroutine. Each step is:
//  1. Check preconditions (transform.Transformation.Check)
//  2. Apply when they hold, or record the rejection
//  3. Stamp the step with the next logical clock value
//  4. Persist the step and any new facts (WithStore)
//  5. Validate the module (WithValidator)
//
// The engine never validates inside Apply. Validation is the caller's check
// of the contract that an applicable transformation keeps a valid module
// valid.
//
// Parallel exploration runs several sequences at once, each on its own clone
// of the module and context (RunParallel).
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Steps are ordered by seq from Clock.Next(). Wall-clock time is never
// stored.
//
// Deterministic Replay:
// Replay re-runs a stored sequence through the same check-then-apply path
// and compares transformation hashes, outcomes, module digests and facts
// with the log. Any difference is a NON_DETERMINISTIC_REPLAY error.
//
// Termination:
// Every sequence is bounded by the max-steps quota (WithMaxSteps).
package engine
