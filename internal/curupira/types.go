// Package curupira implements the transport to the Curupira backend: an
// external, advisory-only service consulted over HTTP or a local
// subprocess. Curupira never executes actions and never decides anything on
// its own; its response is informational context that the Plan Generator
// records in the ".plan" artifact, never a gate.
package curupira

import "time"

const (
	TransportAuto       = "auto"
	TransportHTTP       = "http"
	TransportSubprocess = "subprocess"
)

const (
	StatusBackendResponse    = "backend_response"
	StatusBackendUnavailable = "backend_unavailable"
	StatusBackendError       = "backend_error"
	StatusBackendInvalidJSON = "backend_invalid_json"
	StatusExecutionError     = "execution_error"
	StatusRuntimeError       = "runtime_error"
	StatusNoOpinion          = "no_opinion"
	StatusJSONResponse       = "json_response"
	StatusTextResponse       = "text_response"
)

// Opinion is Curupira's normalized, advisory-only response.
type Opinion struct {
	Intent     string    `json:"intent"`
	Reason     string    `json:"reason"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"ts"`
}

// Config selects and parameterizes the transport.
type Config struct {
	Transport      string
	BackendURL     string
	BackendTimeout time.Duration
	SubprocessPath string
}
