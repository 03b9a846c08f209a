// Package manifest defines the declarative session description consumed by
// the rendering pipeline: total duration, carrier tone, the ordered frequency
// schedule, timed effect events, the per-stem gain table, and the mastering
// spec.
//
// Manifests are parsed once from TOML or YAML at pipeline entry and treated
// as immutable afterwards. Structural validation happens here; timeline
// coverage rules live with the schedule resolver, which is the stage that
// owns them.
package manifest
