// Package api is a client for the NIG data platform REST API.
//
// Every request is authenticated at the TLS layer with the user's PKCS#12
// client certificate, and at the HTTP layer with the bearer token returned by
// Login. Transport failures are retried with a constant backoff; each endpoint
// checks its own expected status code.
package api
