// Package tracker implements the user-facing operations of the workout tracker on top of
// the backend client and the plan cache: set and exercise toggles, reps editing, daily
// notes, body measurements and the transfer of workout results into the workouts note.
package tracker
