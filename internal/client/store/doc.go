// Package store holds the client-side application state shared by every
// view: the authentication session (Session) and the book catalog
// (Catalog).
//
// # Overview
//
// Views call store methods as intents. Each method issues its API call
// through the shared HTTP adapter, interprets the response envelope, mutates
// the store's state, and then notifies subscribers so views can re-render.
// Failures are reported to the user through a notify.Notifier and returned
// to the caller, which may ignore them; nothing here is fatal.
//
// # Session lifecycle
//
//	Unknown ──(no stored token)──────────▶ Anonymous
//	Unknown ──(token, check ok)──────────▶ Authenticated
//	Unknown ──(token, check fails)───────▶ Anonymous
//	Anonymous ──(login ok)───────────────▶ Authenticated
//	Authenticated ──(logout / check fails)▶ Anonymous
//
// Authenticated is only entered after the server acknowledged the
// credential.
//
// # Stale responses
//
// The catalog's book list, selected book and reviews are fetched into
// slots. Starting a fetch for a slot cancels the previous in-flight fetch
// for the same slot, and a response that arrives after a newer fetch started
// is discarded with ErrStale.
//
// # Concurrency
//
// All methods are safe for concurrent use. Accessors return copies.
// Subscribers run synchronously after a change, outside the state lock, so
// they may call accessors freely.
package store
