// Package workout holds the tracker's domain model: daily notes, the structured workout plan,
// and the rules that operate on it.
//
// # Plan decoding
//
// DecodePlan reads backend payloads field by field. A malformed exercise or set is dropped
// rather than failing the plan, and Normalize restores the structural invariants (non-nil
// set slices, completed wins over skipped, exercise completion derived from its sets).
//
// # Set transitions
//
// A set is Pending, Completed or Skipped. A single toggle cycles through the three states in
// that order. Toggling a whole exercise completes every set unless all of them already are,
// in which case every set returns to Pending.
//
// # Fingerprint
//
// Fingerprint reduces a plan to the fields that affect rendering structure. Consumers compare
// fingerprints to choose between rebuilding the plan view and patching individual rows.
package workout
