// Package engine is the blocking REST client for the workflow engine.
//
// The base URL and CSRF token come from the materialized environment
// (ENGINE_API, CSRF_TOKEN); every call checks that precondition before
// touching the network. Write verbs send JSON with the X-XSRF-TOKEN
// header. Expected statuses are strict: GET wants 200, POST/PUT want
// 200 or 204, DELETE wants 204. Anything else surfaces as a
// StatusError carrying the response body. No retries.
package engine
