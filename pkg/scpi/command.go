package scpi

import (
	"strconv"
	"strings"
)

// Command is one instrument command: a module/action pair naming a
// vocabulary entry plus its arguments. Commands are immutable values
// constructed per call and never retained.
type Command struct {
	Module string
	Action string
	Args   []any

	// Query selects the query form of the vocabulary entry; the
	// session waits for a response only when Query is set.
	Query bool
}

// Set builds the set form of a command.
func Set(module, action string, args ...any) Command {
	return Command{Module: module, Action: action, Args: args}
}

// Query builds the query form of a command.
func Query(module, action string, args ...any) Command {
	return Command{Module: module, Action: action, Args: args, Query: true}
}

// Name returns the module.action pair for logging.
func (c Command) Name() string {
	if c.Query {
		return c.Module + "." + c.Action + "?"
	}
	return c.Module + "." + c.Action
}

// Status reports whether a response carries a value or an error.
type Status uint8

const (
	// StatusOk indicates a well-formed response payload.
	StatusOk Status = 0

	// StatusError indicates the instrument reported an error for the
	// exchange, carried in ErrorDetail.
	StatusError Status = 1
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOk:
		return "OK"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Response is one decoded response frame, or the merged frames of a
// multi-part response (memory transfers answer with a header line
// followed by a binary block). Consumed once by the caller.
type Response struct {
	Status      Status
	Payload     string // text payload, terminator stripped
	Block       []byte // binary block payload, nil for text frames
	ErrorDetail string
}

// Float parses the text payload as a float64.
func (r Response) Float() (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(r.Payload), 64)
	if err != nil {
		return 0, fieldError("float payload", r.Payload)
	}
	return v, nil
}

// Int parses the text payload as an int. Instruments report some
// integer values in float notation, so a float payload truncates.
func (r Response) Int() (int, error) {
	s := strings.TrimSpace(r.Payload)
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fieldError("integer payload", r.Payload)
	}
	return int(f), nil
}

// Bool parses an ON/OFF text payload.
func (r Response) Bool() (bool, error) {
	switch strings.TrimSpace(strings.ToUpper(r.Payload)) {
	case "ON", "1":
		return true, nil
	case "OFF", "0":
		return false, nil
	}
	return false, fieldError("ON/OFF payload", r.Payload)
}
