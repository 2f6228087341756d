// Package api is the HTTP client for the tracker backend.
//
// Every request carries the caller identity (X-User-Id, "0" when unknown), the device id
// from preferences and a fresh ULID request id.
//
// # Fallback
//
// The client owns the decision between the remote backend and the local fallback store in
// package offline:
//
//   - Reads that fail are answered from the fallback store without an error.
//   - Writes that fail are written through to the fallback store and still return the
//     error, except note saves and set-state updates, which succeed once stored locally.
//   - A value written locally after a failed write is served to later reads until a write
//     for the same key succeeds remotely.
//
// # Errors
//
// Failures are *Error values classified by kind. Match them with errors.Is against
// ErrNetworkUnavailable, ErrServer, ErrUnauthorized, ErrClient, ErrMalformedResponse and
// ErrLocalStorageUnavailable. Timeouts count as network failures.
package api
