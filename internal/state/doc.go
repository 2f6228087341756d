// Package state caches today's workout plan for the tracker.
//
// # Overview
//
// Store is a read-through cache in front of the backend client. It collapses bursts of
// plan reads into one fetch, keeps serving the last good plan while the backend is down,
// and falls back to the locally stored plan when nothing was ever fetched.
//
//	Plan(ctx, force)
//	  ├─ !force and entry younger than TTL ─→ cached plan
//	  └─ FetchWorkoutPlan
//	       ├─ ok ───────────────→ replace entry, plan
//	       ├─ failed, entry ────→ stale entry
//	       └─ failed, no entry ─→ FallbackWorkoutPlan
//
// Every plan returned has gone through workout.Normalize.
//
// # Optimistic updates
//
// Set toggles change the cached plan before the backend confirms them. Apply and
// ApplyExercise stamp each change with a sequence number. Confirm tells a caller whether
// its response still belongs to the newest change of the set, and a fetch that completes
// keeps the cached values of sets changed after it started.
//
// # Render gate
//
// NeedsRebuild compares the fingerprint of a plan with the last one rendered. Views
// rebuild their rows when it returns true and only patch set states otherwise.
//
// # Concurrency
//
// All state sits behind a sync.RWMutex. Network calls happen outside the lock, so
// overlapping refreshes are allowed; the last fetch to finish wins.
package state
