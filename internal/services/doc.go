// Package services defines the cross-stage error taxonomy and context
// annotations shared by the rendering pipeline.
//
// Every stage failure is tagged with exactly one sentinel marker (schedule,
// asset, sample-rate, clipping, loudness, cancellation, or one of the generic
// validation/configuration/transient classes) via Wrap, so callers classify
// with errors.Is instead of string matching. Loudness and clipping failures
// additionally carry the measured and expected values for operator-facing
// reports.
package services
