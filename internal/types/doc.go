/*
Package types defines the data model shared by the jobbench packages.

# Job

A Job is the request template read from a job file. String fields (the URL,
header values and string leaves of the body) may embed placeholder tokens of
the form <name:Kind>:

	url = "http://localhost:8080/users/<uid:SeqNum>"

	[headers]
	X-Request-Id = "<rid:UUID>"

	[params.uid]
	init_seq_num = 1000
	step = 2

# Request

A Request is one concrete call produced from a Job and an index. Requests
are built on demand by the dispatch engine and discarded after completion.

# TaskResult and Outcome

Every dispatched index yields a TaskResult classified by an Outcome:

  - ok: status 200, JSON body decoded, expect assertion passed
  - status: any other status with a JSON body
  - decode_error: the response body was not JSON
  - assert_failed: the expect expression was falsy
  - transport_error: connection failure or timeout, no response
  - materialize_error: the request could not be built

Outcomes with a response contribute to the latency statistics.
*/
package types
