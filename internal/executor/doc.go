/*
Package executor sends materialized requests over HTTP.

# Transport

HTTPTransport wraps one http.Client shared by every worker. The client's
connection pool is sized to the run's concurrency so that workers reuse
keep-alive connections instead of dialing per request.

A request body, when present, is encoded as JSON and sent with
Content-Type application/json unless the job sets that header itself.
GET and DELETE jobs without a body send none.

# Timeouts

Options.Timeout bounds both the dial and the whole exchange including
reading the response body. A timed-out request is returned as an error and
never as a response.

# TLS

InsecureSkipVerify disables certificate checks. CAFile replaces the system
roots with the PEM certificates it contains.
*/
package executor
