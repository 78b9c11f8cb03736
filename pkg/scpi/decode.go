package scpi

import (
	"bytes"
	"fmt"
)

// Decode attempts to parse one response frame from the front of buf.
// It returns the decoded frame and the number of bytes consumed, so a
// pipelined tail can be retained by the caller.
//
// While buf does not yet hold a complete frame, Decode returns
// ErrNeedMoreData with zero consumed. Malformed framing returns an
// error wrapping ErrMalformedResponse; alignment is unknown after
// that, so the caller should discard its buffer.
//
// Two frame shapes exist: a newline-terminated text line (an optional
// '\r' before the terminator is stripped), and a definite-length
// binary block: '#', one digit giving the length-digit count, the
// length digits, the payload, and a terminator byte the instrument
// always appends.
func Decode(buf []byte) (Response, int, error) {
	if len(buf) == 0 {
		return Response{}, 0, ErrNeedMoreData
	}

	if buf[0] == '#' {
		return decodeBlock(buf)
	}

	i := bytes.IndexByte(buf, '\n')
	if i < 0 {
		return Response{}, 0, ErrNeedMoreData
	}
	line := buf[:i]
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	if len(line) == 0 {
		// A bare terminator is a device fault, not an empty value.
		return Response{}, 0, fmt.Errorf("empty response line: %w", ErrMalformedResponse)
	}
	return Response{Status: StatusOk, Payload: string(line)}, i + 1, nil
}

func decodeBlock(buf []byte) (Response, int, error) {
	if len(buf) < 2 {
		return Response{}, 0, ErrNeedMoreData
	}
	digits := int(buf[1] - '0')
	if digits < 1 || digits > 9 {
		return Response{}, 0, fmt.Errorf("block digit count %q: %w", buf[1], ErrMalformedResponse)
	}
	if len(buf) < 2+digits {
		return Response{}, 0, ErrNeedMoreData
	}

	length := 0
	for _, c := range buf[2 : 2+digits] {
		if c < '0' || c > '9' {
			return Response{}, 0, fmt.Errorf("block length byte %q: %w", c, ErrMalformedResponse)
		}
		length = length*10 + int(c-'0')
	}

	total := 2 + digits + length + 1
	if len(buf) < total {
		return Response{}, 0, ErrNeedMoreData
	}

	block := make([]byte, length)
	copy(block, buf[2+digits:2+digits+length])
	return Response{Status: StatusOk, Block: block}, total, nil
}
