package scpi

import (
	"errors"
	"fmt"
)

var (
	// ErrNeedMoreData is returned by Decode while the buffer does not
	// yet hold a complete frame.
	ErrNeedMoreData = errors.New("need more data")

	// ErrMalformedResponse is returned for bytes that cannot be parsed
	// as a well-formed response frame.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrUnknownCommand is returned when a vocabulary has no entry for
	// a command's module/action pair, or no template for the requested
	// form.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrInvalidParameter is returned when a caller-supplied value is
	// outside the instrument's legal range or enumeration. It is always
	// raised before anything is written to a transport.
	ErrInvalidParameter = errors.New("invalid parameter")
)

func fieldError(what, payload string) error {
	return fmt.Errorf("%s %q: %w", what, payload, ErrMalformedResponse)
}

