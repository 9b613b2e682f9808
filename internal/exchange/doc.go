// Package exchange sends one question to the remote answering endpoint and
// normalizes the result.
//
// # Overview
//
// A Client posts {"question", "session_id"} as JSON and turns whatever comes
// back into an Outcome. Classification runs in a fixed order:
//
//  1. HTTP 429 is RateLimited, whatever the body.
//  2. A transport failure is Failed("network error").
//  3. A non-2xx status with a JSON "error" string is Failed(error).
//  4. Any other non-2xx status is Failed("request failed (HTTP <status>)").
//  5. A 2xx body without "answer", "response" or "result" is
//     Failed("no answer field found"). Unparseable bodies count as {}.
//  6. Otherwise Answered with the first present of answer, response, result
//     and the optional "followups" array.
//
// # Errors
//
// Send never returns an error. Outcome.Err carries one of ErrNetwork,
// ErrRateLimited, ErrServer or ErrMalformedResponse for use with errors.Is.
//
// # Timeouts
//
// The client adds no timeout of its own. Options.Timeout configures the
// underlying http.Client, and the caller's context can cancel a request.
package exchange
