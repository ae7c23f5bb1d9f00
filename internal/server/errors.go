package server

import "errors"

// ErrNoAssembler is returned by New when no assembler is given.
var ErrNoAssembler = errors.New("server requires a report assembler")

// errorResponse is the JSON body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
	Step  string `json:"step,omitempty"`
}
