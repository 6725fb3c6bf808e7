package types

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Method is the HTTP verb a Job is sent with. Job files spell it Post, Get,
// Put or Delete; parsing is case-insensitive.
type Method string

const (
	MethodPost   Method = "Post"
	MethodGet    Method = "Get"
	MethodPut    Method = "Put"
	MethodDelete Method = "Delete"
)

// UnmarshalText implements encoding.TextUnmarshaler so the same rules apply
// to TOML, YAML and JSON job files.
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.OrDefault()), nil
}

// ParseMethod converts a job file method name to a Method
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "post":
		return MethodPost, nil
	case "get":
		return MethodGet, nil
	case "put":
		return MethodPut, nil
	case "delete":
		return MethodDelete, nil
	}
	return "", fmt.Errorf("unsupported method %q (expected Post, Get, Put or Delete)", s)
}

// OrDefault returns Post for the zero value
func (m Method) OrDefault() Method {
	if m == "" {
		return MethodPost
	}
	return m
}

// HTTP returns the wire form of the method (POST, GET, ...)
func (m Method) HTTP() string {
	switch m.OrDefault() {
	case MethodGet:
		return http.MethodGet
	case MethodPut:
		return http.MethodPut
	case MethodDelete:
		return http.MethodDelete
	default:
		return http.MethodPost
	}
}

// Param configures one SeqNum placeholder. Unset fields fall back to the
// job's init_seq_num and a step of 1.
type Param struct {
	InitSeqNum *uint64 `json:"init_seq_num,omitempty" yaml:"init_seq_num,omitempty" toml:"init_seq_num"`
	Step       *uint64 `json:"step,omitempty" yaml:"step,omitempty" toml:"step"`
}

// Job is the request template loaded from a job file
type Job struct {
	URL        string           `json:"url" yaml:"url" toml:"url"`
	Headers    map[string]any   `json:"headers,omitempty" yaml:"headers,omitempty" toml:"headers"`
	Body       any              `json:"body,omitempty" yaml:"body,omitempty" toml:"body"`
	Method     Method           `json:"method,omitempty" yaml:"method,omitempty" toml:"method"`
	Params     map[string]Param `json:"params,omitempty" yaml:"params,omitempty" toml:"params"`
	InitSeqNum uint64           `json:"init_seq_num" yaml:"init_seq_num" toml:"init_seq_num"`

	// Expect is an optional JMESPath expression that must be truthy on the
	// decoded response body for a 200 to count as a success.
	Expect string `json:"expect,omitempty" yaml:"expect,omitempty" toml:"expect"`
}

// Request is one fully materialized HTTP call
type Request struct {
	Index   uint64            `json:"index"`
	Method  Method            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    any               `json:"body,omitempty"`
}

// Outcome classifies what happened to one dispatched index
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeStatus
	OutcomeDecodeError
	OutcomeAssertFailed
	OutcomeTransportError
	OutcomeMaterializeError
)

var outcomeNames = map[Outcome]string{
	OutcomeOK:               "ok",
	OutcomeStatus:           "status",
	OutcomeDecodeError:      "decode_error",
	OutcomeAssertFailed:     "assert_failed",
	OutcomeTransportError:   "transport_error",
	OutcomeMaterializeError: "materialize_error",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Outcomes lists every outcome in display order
func Outcomes() []Outcome {
	return []Outcome{
		OutcomeOK,
		OutcomeStatus,
		OutcomeDecodeError,
		OutcomeAssertFailed,
		OutcomeTransportError,
		OutcomeMaterializeError,
	}
}

// Responded reports whether the outcome carries an HTTP response and
// therefore a meaningful latency
func (o Outcome) Responded() bool {
	switch o {
	case OutcomeOK, OutcomeStatus, OutcomeDecodeError, OutcomeAssertFailed:
		return true
	}
	return false
}

// TaskResult is the outcome of one dispatched request
type TaskResult struct {
	Index      uint64
	Request    *Request
	StatusCode int
	Elapsed    time.Duration
	Body       string // decoded response re-serialized as text
	Outcome    Outcome
	Err        error
}

// ElapsedSeconds returns the elapsed wall time as fractional seconds
func (r *TaskResult) ElapsedSeconds() float64 {
	return r.Elapsed.Seconds()
}

// Success reports whether the result counts toward the success total
func (r *TaskResult) Success() bool {
	return r.Outcome == OutcomeOK && r.StatusCode == http.StatusOK
}
