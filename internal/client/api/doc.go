// Package api is the single outbound channel from the client to the
// bookstore API.
//
// # Overview
//
// HTTPClient sends JSON requests relative to a fixed base URL and decodes
// the server's response envelope:
//
//	{"success": true|false, "message": "...", ...payload fields}
//
// It holds one mutable bearer credential. SetCredential and ClearCredential
// take effect for the very next request issued by any goroutine; while a
// credential is set every request carries "Authorization: Bearer <token>",
// and the header is absent otherwise.
//
// # Error Handling
//
// Failures are returned as sentinel-matching errors:
//
//   - ErrUnavailable: the server could not be reached, or answered 502/503/504.
//   - ErrUnauthorized: 401 or 403.
//   - ErrRejected: any other non-2xx status, or a 2xx response whose envelope
//     says success:false.
//
// Status and server message are available through *APIError; Message picks a
// user-facing text for any error.
//
// Concurrency
//
// HTTPClient is safe for concurrent use. No timeout is applied unless
// WithTimeout is given; the client relies on transport and server timeouts.
package api
